package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/harentsoaR/clinic-records-api/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type AuthResult struct {
	Token string
	User  models.User
}

type ProgramRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type ClientRequest struct {
	FirstName     *string         `json:"firstName,omitempty"`
	LastName      *string         `json:"lastName,omitempty"`
	DateOfBirth   *string         `json:"dateOfBirth,omitempty"`
	Gender        *string         `json:"gender,omitempty"`
	ContactNumber *string         `json:"contactNumber,omitempty"`
	Address       *models.Address `json:"address,omitempty"`
}

type ListClientsParams struct {
	Page     int64
	PageSize int64
	Search   string
}

type ClientList struct {
	Clients    []models.ClientDetail
	Pagination Pagination
}

func (c *Client) auth(ctx context.Context, path string, body any) (*AuthResult, error) {
	env, err := c.do(ctx, http.MethodPost, path, nil, body, nil)
	if err != nil {
		return nil, err
	}
	res := &AuthResult{Token: env.Token}
	if len(env.User) > 0 {
		if err := json.Unmarshal(env.User, &res.User); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
	}
	return res, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	return c.auth(ctx, "/auth/register", req)
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.auth(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if _, err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListPrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if _, err := c.do(ctx, http.MethodGet, "/programs", nil, nil, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

func (c *Client) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	var p models.Program
	if _, err := c.do(ctx, http.MethodGet, "/programs/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProgram(ctx context.Context, req ProgramRequest) (*models.Program, error) {
	var p models.Program
	if _, err := c.do(ctx, http.MethodPost, "/programs", nil, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProgram(ctx context.Context, id string, req ProgramRequest) (*models.Program, error) {
	var p models.Program
	if _, err := c.do(ctx, http.MethodPut, "/programs/"+url.PathEscape(id), nil, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProgram(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/programs/"+url.PathEscape(id), nil, nil, nil)
	return err
}

func (c *Client) ProgramStats(ctx context.Context) (*models.ProgramStats, error) {
	var s models.ProgramStats
	if _, err := c.do(ctx, http.MethodGet, "/programs/stats", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ListClients(ctx context.Context, p ListClientsParams) (*ClientList, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.FormatInt(p.Page, 10))
	}
	if p.PageSize > 0 {
		q.Set("limit", strconv.FormatInt(p.PageSize, 10))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	var list ClientList
	env, err := c.do(ctx, http.MethodGet, "/clients", q, nil, &list.Clients)
	if err != nil {
		return nil, err
	}
	if env.Pagination != nil {
		list.Pagination = *env.Pagination
	}
	return &list, nil
}

func (c *Client) SearchClients(ctx context.Context, term string) ([]models.ClientDetail, error) {
	var clients []models.ClientDetail
	q := url.Values{"query": {term}}
	if _, err := c.do(ctx, http.MethodGet, "/clients/search", q, nil, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (c *Client) GetClient(ctx context.Context, id string) (*models.ClientDetail, error) {
	var d models.ClientDetail
	if _, err := c.do(ctx, http.MethodGet, "/clients/"+url.PathEscape(id), nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) GetClientProfile(ctx context.Context, id string) (*models.PublicProfile, error) {
	var p models.PublicProfile
	if _, err := c.do(ctx, http.MethodGet, "/clients/"+url.PathEscape(id)+"/profile", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateClient(ctx context.Context, req ClientRequest) (*models.Client, error) {
	var cl models.Client
	if _, err := c.do(ctx, http.MethodPost, "/clients", nil, req, &cl); err != nil {
		return nil, err
	}
	return &cl, nil
}

func (c *Client) UpdateClient(ctx context.Context, id string, req ClientRequest) (*models.Client, error) {
	var cl models.Client
	if _, err := c.do(ctx, http.MethodPut, "/clients/"+url.PathEscape(id), nil, req, &cl); err != nil {
		return nil, err
	}
	return &cl, nil
}

func (c *Client) DeleteClient(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/clients/"+url.PathEscape(id), nil, nil, nil)
	return err
}

func (c *Client) EnrollClient(ctx context.Context, clientID, programID string) (*models.ClientDetail, error) {
	var d models.ClientDetail
	body := map[string]string{"programId": programID}
	if _, err := c.do(ctx, http.MethodPost, "/clients/"+url.PathEscape(clientID)+"/programs", nil, body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) RemoveEnrollment(ctx context.Context, clientID, programID string) (*models.ClientDetail, error) {
	var d models.ClientDetail
	path := "/clients/" + url.PathEscape(clientID) + "/programs/" + url.PathEscape(programID)
	if _, err := c.do(ctx, http.MethodDelete, path, nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) UpdateEnrollmentStatus(ctx context.Context, clientID, programID, status string) (*models.ClientDetail, error) {
	var d models.ClientDetail
	path := "/clients/" + url.PathEscape(clientID) + "/programs/" + url.PathEscape(programID)
	if _, err := c.do(ctx, http.MethodPut, path, nil, map[string]string{"status": status}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var s models.DashboardStats
	if _, err := c.do(ctx, http.MethodGet, "/dashboard", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
