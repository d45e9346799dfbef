package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"ai-landing-be/internal/config"
	"ai-landing-be/internal/dto"
	"ai-landing-be/internal/entity"
	"ai-landing-be/internal/repository/specification"
	"ai-landing-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory unitofwork.RepositoryFactory
	configs    map[string]*oauth2.Config
}

// NewOAuthService wires up the providers that have credentials configured.
// A provider with no client id simply stays unavailable.
func NewOAuthService(uowFactory unitofwork.RepositoryFactory, cfg config.OAuthConfig) IOAuthService {
	configs := make(map[string]*oauth2.Config)

	if cfg.GoogleClientID != "" {
		configs["google"] = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}

	if cfg.GithubClientID != "" {
		configs["github"] = &oauth2.Config{
			ClientID:     cfg.GithubClientID,
			ClientSecret: cfg.GithubClientSecret,
			RedirectURL:  cfg.GithubRedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}
	}

	for name := range configs {
		log.Printf("[OAuth Service] Provider enabled: %s", name)
	}

	return &oauthService{
		uowFactory: uowFactory,
		configs:    configs,
	}
}

type oauthUserInfo struct {
	ProviderUserId string
	Email          string
	Name           string
	AvatarURL      string
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	conf, ok := s.configs[provider]
	if !ok {
		return "", errors.New("unsupported provider")
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	return conf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error) {
	conf, ok := s.configs[provider]
	if !ok {
		return nil, errors.New("unsupported provider")
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %v", err)
	}

	var info *oauthUserInfo
	switch provider {
	case "google":
		info, err = fetchGoogleUserInfo(token.AccessToken)
	case "github":
		info, err = fetchGithubUserInfo(ctx, conf, token)
	}
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, errors.New("provider did not return an email address")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: info.Email})
	if err != nil {
		return nil, err
	}

	if user == nil {
		newUser := &entity.User{
			Id:           uuid.New(),
			Email:        info.Email,
			FullName:     info.Name,
			PasswordHash: nil,
			Role:         entity.UserRoleUser,
			Status:       entity.UserStatusActive,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		if err := uow.Begin(ctx); err != nil {
			return nil, err
		}

		if err := uow.UserRepository().Create(ctx, newUser); err != nil {
			uow.Rollback()
			return nil, err
		}

		if err := uow.Commit(); err != nil {
			return nil, err
		}

		user = newUser
		log.Printf("[OAuth Service] New user created with ID: %s", user.Id)
	}

	userProvider := &entity.UserProvider{
		Id:             uuid.New(),
		UserId:         user.Id,
		ProviderName:   provider,
		ProviderUserId: info.ProviderUserId,
		AvatarURL:      info.AvatarURL,
		CreatedAt:      time.Now(),
	}
	if err := uow.UserRepository().SaveUserProvider(ctx, userProvider); err != nil {
		return nil, fmt.Errorf("failed to save provider info: %v", err)
	}

	if info.AvatarURL != "" {
		if err := uow.UserRepository().UpdateAvatar(ctx, user.Id, info.AvatarURL); err != nil {
			log.Printf("[OAuth Service] Failed to sync avatar: %v", err)
		}
	}

	signedToken, err := signAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: signedToken,
		User: dto.UserDTO{
			Id:        user.Id,
			Email:     user.Email,
			FullName:  user.FullName,
			Role:      string(user.Role),
			AvatarURL: info.AvatarURL,
		},
	}, nil
}

func fetchGoogleUserInfo(accessToken string) (*oauthUserInfo, error) {
	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %v", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %v", err)
	}

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(content, &googleUser); err != nil {
		return nil, err
	}

	return &oauthUserInfo{
		ProviderUserId: googleUser.ID,
		Email:          googleUser.Email,
		Name:           googleUser.Name,
		AvatarURL:      googleUser.Picture,
	}, nil
}

func fetchGithubUserInfo(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*oauthUserInfo, error) {
	client := conf.Client(ctx, token)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %v", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %v", err)
	}

	var githubUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(content, &githubUser); err != nil {
		return nil, err
	}

	// The profile email can be private; fall back to the emails endpoint.
	if githubUser.Email == "" {
		emailResp, err := client.Get("https://api.github.com/user/emails")
		if err == nil {
			defer emailResp.Body.Close()
			var emails []struct {
				Email   string `json:"email"`
				Primary bool   `json:"primary"`
			}
			if body, readErr := io.ReadAll(emailResp.Body); readErr == nil {
				if json.Unmarshal(body, &emails) == nil {
					for _, e := range emails {
						if e.Primary {
							githubUser.Email = e.Email
							break
						}
					}
				}
			}
		}
	}

	name := githubUser.Name
	if name == "" {
		name = githubUser.Login
	}

	return &oauthUserInfo{
		ProviderUserId: fmt.Sprintf("%d", githubUser.ID),
		Email:          githubUser.Email,
		Name:           name,
		AvatarURL:      githubUser.AvatarURL,
	}, nil
}
