package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	stateAudience = "oauth-state"
	stateTTL      = 10 * time.Minute
)

// issueState signs the OAuth state parameter so the callback can reject
// forged or stale redirects without server-side storage.
func issueState(secret string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Audience:  jwt.ClaimStrings{stateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func verifyState(secret, state string) error {
	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithAudience(stateAudience))
	return err
}

// subjectFromIDToken reads the sub claim of the id_token returned by the
// token endpoint. The token arrives directly from Google over TLS, so its
// signature is not re-checked here.
func subjectFromIDToken(tok *oauth2.Token) (string, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return "", errors.New("token response has no id_token")
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("id_token has no subject")
	}
	return claims.Subject, nil
}

// GET /api/calendar/auth
func (a *App) GoogleAuthHandler(c *gin.Context) {
	state, err := issueState(a.JWTSecret, a.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	url := a.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GET /oauth2callback
// Exchanges the code, replaces the user's stored refresh token and answers
// with a session token for the API.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	if err := verifyState(a.JWTSecret, c.Query("state")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	ctx := c.Request.Context()
	log := requestLogger(c)

	token, err := a.OAuth.Exchange(ctx, code)
	if err != nil {
		log.Warn().Err(err).Msg("code exchange failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	sub, err := subjectFromIDToken(token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if token.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no refresh token granted; revoke access and sign in again"})
		return
	}
	if err := a.Store.SaveRefreshToken(ctx, sub, token.RefreshToken); err != nil {
		log.Error().Err(err).Msg("save refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
		return
	}

	session, err := IssueSession(a.JWTSecret, sub, a.SessionTTL, a.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("user_sub", sub).Msg("user signed in")
	c.JSON(http.StatusOK, gin.H{
		"message":    "Authorization successful",
		"token":      session,
		"expires_in": int(a.SessionTTL.Seconds()),
	})
}
