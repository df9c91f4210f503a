package promotions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"sellerpromotions/admin-api/internal/core/identity"
	"sellerpromotions/admin-api/internal/core/middleend"
)

const (
	tiersRole       = "SP_CENTRAL_TIERS"
	centralFragment = "SP_CENTRAL"
	preNegotiated   = "PRE_NEGOTIATED"
)

// BatchPaths resolves batch API paths and the scope sent to it.
type BatchPaths interface {
	BatchFilesPath(path string) string
	Scope() string
}

// Service forwards promotion operations to the middleend.
type Service struct {
	client     middleend.Doer
	navigation middleend.Doer
	paths      BatchPaths
}

func NewService(client middleend.Doer, paths BatchPaths) *Service {
	return &Service{client: client, navigation: client, paths: paths}
}

// WithNavigationClient serves the menu through its own client, which lets it
// carry a different timeout.
func (s *Service) WithNavigationClient(client middleend.Doer) *Service {
	s.navigation = client
	return s
}

// EditForm is the body of a promotion edit.
type EditForm struct {
	PromotionID string         `json:"promotionId"`
	UserData    map[string]any `json:"userData"`
}

// StatusChange is the body of a promotion status transition.
type StatusChange struct {
	PromotionID string `json:"promotionId"`
	Reason      string `json:"reason"`
}

// Actor identifies who performs an operation.
type Actor struct {
	UserID    string
	SessionID string
	Roles     []string
}

// ForcesTiers reports whether the role set only grants the tiers view: it
// holds the tiers role and it is the only central role.
func ForcesTiers(roles []string) bool {
	user := identity.User{Roles: roles}
	return user.HasRole(tiersRole) && user.CountRolesContaining(centralFragment) == 1
}

// List returns the promotions list. Tiers-only callers always get type=tiers.
func (s *Service) List(ctx context.Context, cfg middleend.Config, query url.Values, roles []string) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	middleend.Merge(params, query)
	if ForcesTiers(roles) {
		params.Set("type", "tiers")
	}

	return middleend.Call(ctx, s.client, "Error on list", middleend.Request{
		Method: http.MethodGet,
		Path:   cfg.Path() + "/list",
		Params: params,
	})
}

// GetBuilder returns the builder data, for a promotion when promotionID is set.
func (s *Service) GetBuilder(ctx context.Context, cfg middleend.Config, userID, promotionID string) (*middleend.Response, error) {
	path := cfg.Path()
	if promotionID != "" {
		path += "/" + url.PathEscape(promotionID)
	}

	params := middleend.NewParams(cfg.Version)
	params.Set("userId", userID)

	return middleend.Call(ctx, s.client, "Error on getBuilder", middleend.Request{
		Method: http.MethodGet,
		Path:   path,
		Params: params,
	})
}

// SubmitEditForm saves the edited promotion data for the resolved site.
func (s *Service) SubmitEditForm(ctx context.Context, cfg middleend.Config, form EditForm, actor Actor) (*middleend.Response, error) {
	data := make(map[string]any, len(form.UserData)+1)
	for k, v := range form.UserData {
		data[k] = v
	}
	data["site"] = cfg.SiteID

	params := middleend.NewParams(cfg.Version)
	params.Set("userId", actor.UserID)
	params.Set("session_id", actor.SessionID)

	return middleend.Call(ctx, s.client, "Error on submitEditForm", middleend.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("%s/%s/edit", cfg.Path(), url.PathEscape(form.PromotionID)),
		Params: params,
		Body: map[string]any{
			"user_id": actor.UserID,
			"data":    data,
		},
	})
}

// GetActionModal returns the modal of a promotion action.
func (s *Service) GetActionModal(ctx context.Context, cfg middleend.Config, promotionID, actionID, userID string, body json.RawMessage) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("userId", userID)

	return middleend.Call(ctx, s.client, "Error on get the action modal on middleEnd service", middleend.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/action/%s", cfg.Path(), url.PathEscape(promotionID), url.PathEscape(actionID)),
		Params: params,
		Body:   body,
	})
}

// SimulateCampaign starts a campaign simulation. The body fields travel as
// query parameters; userId always wins.
func (s *Service) SimulateCampaign(ctx context.Context, cfg middleend.Config, promotionID, userID string, body json.RawMessage) (*middleend.Response, error) {
	fields, err := middleend.FlattenObject(body)
	if err != nil {
		return nil, &middleend.Error{Status: http.StatusBadRequest, Message: "simulation body must be a JSON object", Err: err}
	}

	params := middleend.NewParams(cfg.Version)
	middleend.Merge(params, fields)
	params.Set("userId", userID)

	return middleend.Call(ctx, s.client, "Error on start the simulation of this promotion on middleEnd service", middleend.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/simulate", cfg.Path(), url.PathEscape(promotionID)),
		Params: params,
	})
}

// ApproveRejectPromotion applies approve or reject.
func (s *Service) ApproveRejectPromotion(ctx context.Context, cfg middleend.Config, change StatusChange, action string, actor Actor) (*middleend.Response, error) {
	return s.postStatus(ctx, cfg, change.PromotionID, actor, "Error on middleEnd service", map[string]any{
		"performer":  actor.UserID,
		"updated_by": actor.UserID,
		"action":     action,
		"roles":      rolesOrEmpty(actor.Roles),
	})
}

// UpdateStatus applies any other status action with its reason.
func (s *Service) UpdateStatus(ctx context.Context, cfg middleend.Config, change StatusChange, action string, actor Actor) (*middleend.Response, error) {
	return s.postStatus(ctx, cfg, change.PromotionID, actor, "Error updating the promotion status on middleEnd service", map[string]any{
		"action":     action,
		"reason":     change.Reason,
		"performer":  actor.UserID,
		"updated_by": actor.UserID,
		"roles":      rolesOrEmpty(actor.Roles),
	})
}

func (s *Service) postStatus(ctx context.Context, cfg middleend.Config, promotionID string, actor Actor, message string, body map[string]any) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("userId", actor.UserID)

	return middleend.Call(ctx, s.client, message, middleend.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/status", cfg.Path(), url.PathEscape(promotionID)),
		Params: params,
		Body:   body,
	})
}

// UploadCSVFile sends a pre-negotiated offers file to the batch API.
func (s *Service) UploadCSVFile(ctx context.Context, file middleend.File, promotionID, userID string) (middleend.Notice, error) {
	params := s.batchParams(userID)
	params.Set("promotion_id", promotionID)
	params.Set("type", preNegotiated)

	resp, err := middleend.Call(ctx, s.client, "Error on upload CSV File", middleend.Request{
		Method: http.MethodPost,
		Path:   s.paths.BatchFilesPath("pre-negotiated/process"),
		Params: params,
		File:   &file,
	})
	if err != nil {
		return middleend.Notice{}, err
	}

	var batch struct {
		BatchID json.RawMessage `json:"batch_id"`
	}
	_ = json.Unmarshal(resp.Data, &batch)

	return middleend.Notice{
		Type:    "success",
		Message: fmt.Sprintf("Te avisaremos cuando terminemos de procesar tu archivo csv. Batch #%s.", batchID(batch.BatchID)),
	}, nil
}

// UploadCSVFileRequirements sends a requirements file of the given type.
func (s *Service) UploadCSVFileRequirements(ctx context.Context, file middleend.File, promotionID, fileType, userID string) (*middleend.Response, error) {
	params := s.batchParams(userID)
	params.Set("promotion_id", promotionID)
	middleend.SetIfPresent(params, "type", fileType)

	return middleend.Call(ctx, s.client, "Error on upload CSV File", middleend.Request{
		Method: http.MethodPost,
		Path:   s.paths.BatchFilesPath("precondition/process"),
		Params: params,
		File:   &file,
	})
}

// DeleteFileRequirements removes a previously uploaded requirements file.
func (s *Service) DeleteFileRequirements(ctx context.Context, promotionID, fileType, fileID, userID string) (*middleend.Response, error) {
	params := s.batchParams(userID)
	params.Set("promotion_id", promotionID)
	middleend.SetIfPresent(params, "type", fileType)

	return middleend.Call(ctx, s.client, "Error on delete CSV File", middleend.Request{
		Method: http.MethodDelete,
		Path:   s.paths.BatchFilesPath("precondition/" + url.PathEscape(fileID)),
		Params: params,
	})
}

// Put forwards a body to an arbitrary path below the promotions resource.
func (s *Service) Put(ctx context.Context, cfg middleend.Config, apiURL, userID string, body json.RawMessage) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("user_id", userID)

	return middleend.Call(ctx, s.client, "Error updating the offers status on middleEnd service", middleend.Request{
		Method: http.MethodPut,
		Path:   cfg.Path() + "/" + apiURL,
		Params: params,
		Body:   body,
	})
}

// Post forwards a body to an arbitrary path below the promotions resource.
func (s *Service) Post(ctx context.Context, cfg middleend.Config, apiURL, userID string, body json.RawMessage) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("user_id", userID)
	params.Set("siteId", cfg.SiteID)

	return middleend.Call(ctx, s.client, "Error adding offer on middleEnd service", middleend.Request{
		Method: http.MethodPost,
		Path:   cfg.Path() + "/" + apiURL,
		Params: params,
		Body:   body,
	})
}

// CSVTemplate opens the pre-negotiated template download. The caller must
// close the returned body.
func (s *Service) CSVTemplate(ctx context.Context, siteID string) (*middleend.Response, error) {
	params := url.Values{}
	middleend.SetIfPresent(params, "version", s.paths.Scope())
	params.Set("site_id", siteID)

	return middleend.Call(ctx, s.client, "Error getting the template", middleend.Request{
		Method: http.MethodGet,
		Path:   s.paths.BatchFilesPath("templates/pre-negotiated"),
		Params: params,
		Stream: true,
	})
}

// CreatorFlow posts a creation step. query carries the inbound query string;
// currentStep and id select the step and the promotion.
func (s *Service) CreatorFlow(ctx context.Context, cfg middleend.Config, query url.Values, actor Actor, body json.RawMessage) (*middleend.Response, error) {
	path := cfg.Path() + "/create"
	if query.Has("currentStep") {
		path += "/" + url.PathEscape(query.Get("currentStep"))
	}

	params := middleend.NewParams(cfg.Version)
	middleend.Merge(params, query)
	params.Set("userId", actor.UserID)
	params.Set("sessionId", actor.SessionID)
	params.Set("session_id", actor.SessionID)
	params.Set("user_id", actor.UserID)
	middleend.SetIfPresent(params, "promotion_id", query.Get("id"))

	if len(body) == 0 {
		body = json.RawMessage(`{}`)
	}

	return middleend.Call(ctx, s.client, "Error on creator", middleend.Request{
		Method: http.MethodPost,
		Path:   path,
		Params: params,
		Body:   body,
	})
}

// ExecuteAction runs a promotion action.
func (s *Service) ExecuteAction(ctx context.Context, cfg middleend.Config, promotionID, actionID string, actor Actor) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("session_id", actor.SessionID)
	params.Set("user_id", actor.UserID)

	return middleend.Call(ctx, s.client, "Error on execute action", middleend.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("%s/%s/execute/%s", cfg.Path(), url.PathEscape(promotionID), url.PathEscape(actionID)),
		Params: params,
	})
}

// GetPromotion reads the promotion to duplicate. The middleend expects the
// identifiers in the body of the GET.
func (s *Service) GetPromotion(ctx context.Context, cfg middleend.Config, promotionID, actionID string, actor Actor) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("session_id", actor.SessionID)
	params.Set("user_id", actor.UserID)

	return middleend.Call(ctx, s.client, "Error on execute duplicate action", middleend.Request{
		Method: http.MethodGet,
		Path:   cfg.Path() + "/duplicate",
		Params: params,
		Body: map[string]string{
			"promotion_id": promotionID,
			"action_id":    actionID,
		},
	})
}

// DuplicateCampaign creates a copy of the promotion.
func (s *Service) DuplicateCampaign(ctx context.Context, cfg middleend.Config, promotionID string, promotion json.RawMessage, actor Actor) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("session_id", actor.SessionID)
	params.Set("user_id", actor.UserID)

	if len(promotion) == 0 {
		promotion = json.RawMessage(`null`)
	}

	return middleend.Call(ctx, s.client, "Error on duplicate campaign", middleend.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/duplicate", cfg.Path(), url.PathEscape(promotionID)),
		Params: params,
		Body:   map[string]json.RawMessage{"promotion": promotion},
	})
}

// MenuNavigation returns the admin menu.
func (s *Service) MenuNavigation(ctx context.Context, cfg middleend.Config) (*middleend.Response, error) {
	return middleend.Call(ctx, s.navigation, "Error getting Pandora navigation", middleend.Request{
		Method: http.MethodGet,
		Path:   cfg.Path() + "/navigation",
		Params: middleend.NewParams(cfg.Version),
	})
}

func (s *Service) batchParams(userID string) url.Values {
	params := url.Values{}
	middleend.SetIfPresent(params, "version", s.paths.Scope())
	params.Set("user_id", userID)
	return params
}

func rolesOrEmpty(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	return roles
}

func batchID(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	if len(raw) == 0 {
		return "undefined"
	}
	return string(raw)
}
