package auth

import (
	"context"
	"net/http"

	portalhttp "applicant-portal/internal/common/http"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/models"
)

// Client talks to the /auth/* endpoints.
type Client struct {
	api     *portalhttp.Client
	session *Session
	logger  logger.Logger
}

func NewClient(api *portalhttp.Client, session *Session, log logger.Logger) *Client {
	return &Client{
		api:     api,
		session: session,
		logger:  logger.ForComponent(log, "auth-client"),
	}
}

// Login exchanges credentials for a bearer token and stores it.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	var result models.LoginResult
	err := c.api.DoJSON(ctx, portalhttp.Request{
		Method:   http.MethodPost,
		Path:     "/auth/login",
		Body:     creds,
		Endpoint: "auth.login",
	}, &result)
	if err != nil {
		return nil, err
	}
	if err := c.session.Save(ctx, result.Token); err != nil {
		return nil, err
	}
	c.logger.Info("logged in", map[string]interface{}{"userId": result.User.ID})
	return &result, nil
}

// Signup registers a new applicant. The backend sends a verification email.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.Ack, error) {
	return c.ack(ctx, http.MethodPost, "/auth/signup", "auth.signup", false, req)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*models.Ack, error) {
	return c.ack(ctx, http.MethodPost, "/auth/forgot-password", "auth.forgot_password", false,
		map[string]string{"email": email})
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) (*models.Ack, error) {
	return c.ack(ctx, http.MethodPost, "/auth/reset-password", "auth.reset_password", false,
		map[string]string{"token": token, "password": password})
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (*models.Ack, error) {
	return c.ack(ctx, http.MethodPost, "/auth/verify-email", "auth.verify_email", false,
		map[string]string{"token": token})
}

func (c *Client) ResendVerificationEmail(ctx context.Context, email string) (*models.Ack, error) {
	return c.ack(ctx, http.MethodPost, "/auth/resend-verification-email", "auth.resend_verification", false,
		map[string]string{"email": email})
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) (*models.Ack, error) {
	return c.ack(ctx, http.MethodPost, "/auth/change-password", "auth.change_password", true,
		map[string]string{"currentPassword": current, "newPassword": next})
}

// Me validates the stored token and returns the profile it belongs to.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	err := c.api.DoJSON(ctx, portalhttp.Request{
		Method:        http.MethodGet,
		Path:          "/auth/me",
		Endpoint:      "auth.me",
		Authenticated: true,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	err := c.api.DoJSON(ctx, portalhttp.Request{
		Method:        http.MethodPut,
		Path:          "/auth/update-profile",
		Body:          update,
		Endpoint:      "auth.update_profile",
		Authenticated: true,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout forgets the stored token. There is no server-side logout endpoint.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

func (c *Client) ack(ctx context.Context, method, path, endpoint string, authenticated bool, body interface{}) (*models.Ack, error) {
	resp, err := c.api.Do(ctx, portalhttp.Request{
		Method:        method,
		Path:          path,
		Body:          body,
		Endpoint:      endpoint,
		Authenticated: authenticated,
	})
	if err != nil {
		return nil, err
	}
	return ackFrom(resp.Body), nil
}

// ackFrom reads {success, message}; an unparseable 2xx body still counts as success.
func ackFrom(body []byte) *models.Ack {
	ack := &models.Ack{Success: true, Message: portalhttp.ServerMessage(body)}
	return ack
}
