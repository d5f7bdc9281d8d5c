package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из API.
type WorkflowResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Mode        string           `json:"mode"`
	Status      string           `json:"status"`
	Version     int              `json:"version"`
	Steps       []map[string]any `json:"steps,omitempty"`
	UpdatedBy   string           `json:"updated_by,omitempty"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

// SaveResponse — результат сохранения из API.
type SaveResponse struct {
	Status          string         `json:"status"`
	Version         int            `json:"version"`
	SavedBy         string         `json:"saved_by,omitempty"`
	ConflictingUser string         `json:"conflicting_user,omitempty"`
	Snapshot        map[string]any `json:"snapshot,omitempty"`
	Timestamp       string         `json:"timestamp"`
}

// VersionResponse — запись истории версий из API.
type VersionResponse struct {
	WorkflowID string         `json:"workflow_id"`
	Version    int            `json:"version"`
	SavedBy    string         `json:"saved_by,omitempty"`
	Snapshot   map[string]any `json:"snapshot,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

// VariableResponse — переменная реестра из API.
type VariableResponse struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	StepKey  string   `json:"step_key"`
	Options  []string `json:"options,omitempty"`
	Position int      `json:"position"`
}

// LayoutResponse — раскладка холста из API.
type LayoutResponse struct {
	Positions  map[string]map[string]float64 `json:"positions"`
	Connectors []map[string]any              `json:"connectors"`
	Edges      []map[string]any              `json:"edges"`
	Bounds     map[string]float64            `json:"bounds"`
}

// --- Request types ---

// CreateWorkflowRequest — создание workflow.
type CreateWorkflowRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Mode        string `json:"mode,omitempty"`
	User        string `json:"user,omitempty"`
}

// SaveWorkflowRequest — сохранение снапшота workflow.
type SaveWorkflowRequest struct {
	ExpectedVersion int            `json:"expected_version"`
	User            string         `json:"user,omitempty"`
	Workflow        map[string]any `json:"workflow"`
}

// PublishRequest — публикация workflow.
type PublishRequest struct {
	User string `json:"user,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details,omitempty"`
	} `json:"error"`
}

// ErrConflict сигнализирует о расхождении версий при сохранении.
type ErrConflict struct {
	Result *SaveResponse
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("version conflict: server is at version %d (saved by %s)",
		e.Result.Version, e.Result.ConflictingUser)
}

// --- Client ---

// Client — HTTP-клиент для Flowboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Workflows ---

// ListWorkflows возвращает все workflows.
func (c *Client) ListWorkflows() ([]WorkflowResponse, error) {
	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", &workflows)
	return workflows, err
}

// CreateWorkflow создаёт новый workflow.
func (c *Client) CreateWorkflow(req CreateWorkflowRequest) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.post("/api/v1/workflows", req, &wf)
	return &wf, err
}

// GetWorkflow возвращает workflow по ID.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &wf)
	return &wf, err
}

// DeleteWorkflow удаляет workflow.
func (c *Client) DeleteWorkflow(id string) error {
	return c.delete("/api/v1/workflows/" + id)
}

// SaveWorkflow сохраняет снапшот. Конфликт версий — *ErrConflict.
func (c *Client) SaveWorkflow(id string, req SaveWorkflowRequest) (*SaveResponse, error) {
	resp, err := c.do(http.MethodPut, "/api/v1/workflows/"+id, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		var res SaveResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, fmt.Errorf("failed to decode conflict response: %w", err)
		}
		return nil, &ErrConflict{Result: &res}
	}

	if err := c.checkError(resp); err != nil {
		return nil, err
	}

	var res SaveResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &res, nil
}

// PublishWorkflow публикует workflow.
func (c *Client) PublishWorkflow(id, user string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.post("/api/v1/workflows/"+id+"/publish", PublishRequest{User: user}, &wf)
	return &wf, err
}

// ListVariables возвращает реестр переменных workflow.
func (c *Client) ListVariables(id string) ([]VariableResponse, error) {
	var vars []VariableResponse
	err := c.list("/api/v1/workflows/"+id+"/variables", &vars)
	return vars, err
}

// GetLayout возвращает раскладку холста.
func (c *Client) GetLayout(id string) (*LayoutResponse, error) {
	var lay LayoutResponse
	err := c.get("/api/v1/workflows/"+id+"/layout", &lay)
	return &lay, err
}

// ListVersions возвращает историю версий workflow.
func (c *Client) ListVersions(id string) ([]VersionResponse, error) {
	var versions []VersionResponse
	err := c.list("/api/v1/workflows/"+id+"/versions", &versions)
	return versions, err
}

// GetVersion возвращает конкретную версию со снапшотом.
func (c *Client) GetVersion(id string, version int) (*VersionResponse, error) {
	var v VersionResponse
	err := c.get(fmt.Sprintf("/api/v1/workflows/%s/versions/%d", id, version), &v)
	return &v, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, result any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if lr.Data == nil {
		return nil
	}
	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	if len(er.Error.Details) > 0 {
		return fmt.Errorf("%s: %s (%v)", er.Error.Code, er.Error.Message, er.Error.Details)
	}
	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
