package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const facebookScopes = "pages_show_list,pages_read_engagement,pages_manage_posts,public_profile"

type IFacebookOAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

type facebookOAuthHandler struct {
	tokenRepo repository.IOAuthToken
	states    *oauthStateStore
}

func NewFacebookOAuthHandler(tokenRepo repository.IOAuthToken) IFacebookOAuthHandler {
	return &facebookOAuthHandler{tokenRepo: tokenRepo, states: newOAuthStateStore(10 * time.Minute)}
}

// GetAuthURL builds the Facebook consent URL. Runs behind the auth
// middleware; the issued state carries the caller's user id into the
// unauthenticated callback.
func (h *facebookOAuthHandler) GetAuthURL(c *gin.Context) {
	conf := configuration.C.OAuth.Facebook
	if conf.ClientID == "" || conf.RedirectURI == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "facebook oauth not configured"})
		return
	}
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	state := h.states.Issue(userID)
	u := url.URL{Scheme: "https", Host: "www.facebook.com", Path: "/v19.0/dialog/oauth"}
	q := u.Query()
	q.Set("client_id", conf.ClientID)
	q.Set("redirect_uri", conf.RedirectURI)
	q.Set("state", state)
	q.Set("scope", facebookScopes)
	u.RawQuery = q.Encode()
	c.JSON(http.StatusOK, gin.H{"auth_url": u.String(), "state": state})
}

// Callback exchanges the code for a long-lived token, resolves the user's
// pages and stores the first page's posting credential.
func (h *facebookOAuthHandler) Callback(c *gin.Context) {
	lg := logger.GetLogger()
	conf := configuration.C.OAuth.Facebook
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	userID, ok := h.states.Consume(c.Query("state"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}

	// 1. Exchange code for short-lived user access token
	tokenURL := fmt.Sprintf("https://graph.facebook.com/v19.0/oauth/access_token?client_id=%s&redirect_uri=%s&client_secret=%s&code=%s",
		url.QueryEscape(conf.ClientID), url.QueryEscape(conf.RedirectURI), url.QueryEscape(conf.ClientSecret), url.QueryEscape(code))
	shortData, err := fetchAccessToken(tokenURL)
	if err != nil {
		lg.WithField("error", err).Error("facebook token exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "token_exchange_failed"})
		return
	}

	// 2. Exchange short-lived for long-lived token
	llURL := fmt.Sprintf("https://graph.facebook.com/v19.0/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		url.QueryEscape(conf.ClientID), url.QueryEscape(conf.ClientSecret), url.QueryEscape(shortData.AccessToken))
	llData, err := fetchAccessToken(llURL)
	if err != nil {
		lg.WithField("error", err).Error("long lived token exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "long_lived_token_failed"})
		return
	}
	expiresAt := time.Now().Add(time.Duration(llData.ExpiresIn) * time.Second).UTC()

	// 3. Get pages list using long-lived user token
	pagesURL := fmt.Sprintf("https://graph.facebook.com/v19.0/me/accounts?access_token=%s", url.QueryEscape(llData.AccessToken))
	pagesResp, err := http.Get(pagesURL)
	if err != nil {
		lg.WithField("error", err).Error("facebook pages request error")
		c.JSON(http.StatusBadGateway, gin.H{"error": "pages_request_failed"})
		return
	}
	pagesBody, _ := io.ReadAll(pagesResp.Body)
	pagesResp.Body.Close()
	if pagesResp.StatusCode != 200 {
		lg.WithField("body", string(pagesBody)).Error("pages fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "pages_fetch_failed"})
		return
	}
	var pages struct {
		Data []struct {
			Name        string `json:"name"`
			ID          string `json:"id"`
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(pagesBody, &pages); err != nil {
		lg.WithField("err", err).Error("unmarshal pages list")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "parse_pages_failed"})
		return
	}
	if len(pages.Data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_pages_available"})
		return
	}
	// Auto-select first page; page selection UI comes later.
	selected := pages.Data[0]
	tokenType := "page"

	tok := &model.OAuthToken{
		UserID:      userID,
		Platform:    model.PlatformFacebook,
		AccessToken: selected.AccessToken, // page token used for posting
		// Facebook page tokens are long-lived; there is no refresh flow.
		RefreshToken: "",
		ExpiresAt:    &expiresAt,
		Scopes:       facebookScopes,
		PageID:       &selected.ID,
		PageName:     &selected.Name,
		TokenType:    &tokenType,
	}
	if err := h.tokenRepo.UpsertToken(c.Request.Context(), tok); err != nil {
		lg.WithField("error", err).Error("failed to upsert facebook token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store_token_failed"})
		return
	}
	if c.Query("frontend") == "1" {
		c.Header("Content-Type", "text/html; charset=utf-8")
		_, _ = c.Writer.Write([]byte(fmt.Sprintf(`<!DOCTYPE html><html><head><title>Facebook Connected</title></head><body><script>if (window.opener){window.opener.postMessage({source:'facebook-oauth',connected:true,page_id:'%s',page_name:%q},'*');window.close();}else{document.write('Facebook connected: %s');}</script></body></html>`, selected.ID, selected.Name, selected.Name)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "page_id": selected.ID, "page_name": selected.Name})
}

type accessTokenData struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func fetchAccessToken(u string) (*accessTokenData, error) {
	resp, err := http.Get(u)
	if err != nil {
		return nil, err
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, string(body))
	}
	data := &accessTokenData{}
	if err := json.Unmarshal(body, data); err != nil {
		return nil, err
	}
	return data, nil
}
