package promotions

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sellerpromotions/admin-api/internal/adapters/http/support"
	appmassive "sellerpromotions/admin-api/internal/application/massiveoffers"
	appoffers "sellerpromotions/admin-api/internal/application/offers"
	apppromotions "sellerpromotions/admin-api/internal/application/promotions"
	"sellerpromotions/admin-api/internal/core/middleend"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
	"sellerpromotions/admin-api/internal/infrastructure/http/middleware"
)

const (
	scopeCreate      = "SP_CENTRAL_PROMOTION_CREATE"
	scopeOfferList   = "SP_CENTRAL_PROMOTION_OFFER_LIST"
	scopeOfferAdd    = "SP_CENTRAL_PROMOTION_OFFER_ADD"
	scopeOfferModify = "SP_CENTRAL_OFFER_MODIFY"
	scopeOfferRemove = "SP_CENTRAL_OFFER_REMOVE"
	scopeApprove     = "SP_CENTRAL_PROMOTION_APPROVE"

	defaultDeleteReason = "Fake reason"
)

// Options wires the promotions routes.
type Options struct {
	Base         support.Base
	Promotions   *apppromotions.Service
	Offers       *appoffers.Service
	Massive      *appmassive.Service
	Authorizer   *middleware.Authorizer
	ActionScopes map[string][]string
	// OffersListDelay is waited before listing the offers of a promotion.
	OffersListDelay time.Duration
}

// Handler serves /api/promotions.
type Handler struct {
	support.Base
	promotions   *apppromotions.Service
	offers       *appoffers.Service
	massive      *appmassive.Service
	authz        *middleware.Authorizer
	actionScopes map[string][]string
	offersDelay  time.Duration
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		Base:         opts.Base,
		promotions:   opts.Promotions,
		offers:       opts.Offers,
		massive:      opts.Massive,
		authz:        opts.Authorizer,
		actionScopes: opts.ActionScopes,
		offersDelay:  opts.OffersListDelay,
	}
}

// Register mounts the routes on r. Every route requires an identity.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticated)
		scoped := func(scopes ...string) chi.Router { return r.With(h.authz.RequireScopes(scopes...)) }

		r.Get("/list", h.List)
		r.Get("/builder", h.Builder)
		r.Get("/navigation", h.Navigation)
		scoped(scopeCreate).Post("/edit", h.Edit)
		scoped(scopeCreate).Post("/create", h.Create)
		scoped(scopeCreate).Put("/executeAction", h.ExecuteAction)
		scoped(scopeCreate).Get("/duplicate", h.GetDuplicate)
		scoped(scopeCreate).Post("/duplicate", h.PostDuplicate)
		r.Put("/actions", h.PutAction)
		scoped(scopeOfferAdd).Post("/action", h.PostAction)
		r.Get("/csv/template", h.CSVTemplate)

		r.Get("/offers/massive", h.MassiveForm)
		r.Post("/offers/massive", h.MassiveUpload)
		r.Get("/offers/massive/action", h.MassiveModal)

		r.With(h.authz.RequireScopes(scopeOfferList), middleware.Delay(h.offersDelay)).Get("/{promotionId}/offers", h.ListOffers)
		scoped(scopeOfferAdd).Post("/{promotionId}/offers", h.AddOffer)
		scoped(scopeOfferList).Post("/{promotionId}/action", h.ActionModal)
		r.Post("/{promotionId}/simulate", h.Simulate)
		r.With(h.authz.RequireAction(h.actionScopes, "delete")).Put("/{promotionId}/status/delete", h.DeletePromotion)
		r.With(h.authz.RequireAction(h.actionScopes, "")).Put("/{promotionId}/status/{actionId}", h.UpdateStatus)
		scoped(scopeOfferAdd).Post("/{promotionId}/offers/validate", h.ValidateItem)
		r.Post("/{promotionId}/offers/upload", h.UploadOffers)
		scoped(scopeOfferModify).Get("/{promotionId}/offers/{offerId}", h.GetOffer)
		scoped(scopeOfferModify).Put("/{promotionId}/offers/{offerId}", h.EditOffer)
		scoped(scopeOfferRemove).Delete("/{promotionId}/offers/{offerId}", h.DeleteOffer)
		scoped(scopeApprove).Post("/{promotionId}/offers/{offerId}/approve", h.ApproveOffer)
		r.Post("/{promotionId}/items/upload", h.UploadRequirements)
		r.Delete("/{promotionId}/items/upload", h.DeleteRequirements)
	})
}

func actor(r *http.Request) apppromotions.Actor {
	user := support.User(r)
	return apppromotions.Actor{UserID: user.UserID, SessionID: user.SessionID, Roles: user.Roles}
}

// List handles GET /list.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.promotions.List(support.Detached(r), h.Promotions(r), r.URL.Query(), support.User(r).Roles)
	h.Audit(r, support.Event{Name: "get", Resource: "promotions", Tags: []string{"post", "promotions", "getpromotionslist"}}, nil, resp, err)
	h.RespondOK(w, resp, err)
}

// Builder handles GET /builder, optionally for ?promotionId.
func (h *Handler) Builder(w http.ResponseWriter, r *http.Request) {
	resp, err := h.promotions.GetBuilder(support.Detached(r), h.Promotions(r), support.User(r).UserID, r.URL.Query().Get("promotionId"))
	h.RespondOK(w, resp, err)
}

// Navigation handles GET /navigation.
func (h *Handler) Navigation(w http.ResponseWriter, r *http.Request) {
	resp, err := h.promotions.MenuNavigation(support.Detached(r), h.Promotions(r))
	h.RespondOK(w, resp, err)
}

// Edit handles POST /edit.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var form apppromotions.EditForm
	body, ok := h.Decode(w, r, &form)
	if !ok {
		return
	}

	cfg := h.Promotions(r)
	resp, err := h.promotions.SubmitEditForm(support.Detached(r), cfg, form, actor(r))
	h.Audit(r, support.Event{
		Name:     "editpromotion",
		Resource: "promotions",
		Tags:     []string{"post", "promotions", "edit-promotion"},
		Previous: support.ConfigSnapshot(cfg),
	}, body, resp, err)
	h.RespondOK(w, resp, err)
}

// ListOffers handles GET /{promotionId}/offers.
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.offers.List(support.Detached(r), h.Promotions(r), chi.URLParam(r, "promotionId"), support.User(r).UserID, r.URL.Query())
	h.Audit(r, support.Event{Name: "getofferslist", Resource: "offers", Tags: []string{"get", "offer", "get-offer"}}, nil, resp, err)
	h.Respond(w, resp, err)
}

// AddOffer handles POST /{promotionId}/offers.
func (h *Handler) AddOffer(w http.ResponseWriter, r *http.Request) {
	var in appoffers.Input
	body, ok := h.Decode(w, r, &in)
	if !ok {
		return
	}
	in.PromotionID = chi.URLParam(r, "promotionId")

	resp, err := h.offers.Add(support.Detached(r), h.Promotions(r), in, support.User(r).UserID)
	h.Audit(r, support.Event{Name: "addoffer", Resource: "offers", Tags: []string{"post", "offer", "add"}}, body, resp, err)
	h.Respond(w, resp, err)
}

// ActionModal handles POST /{promotionId}/action?actionId.
func (h *Handler) ActionModal(w http.ResponseWriter, r *http.Request) {
	body, ok := h.ReadJSON(w, r)
	if !ok {
		return
	}

	resp, err := h.promotions.GetActionModal(support.Detached(r), h.Promotions(r), chi.URLParam(r, "promotionId"), r.URL.Query().Get("actionId"), support.User(r).UserID, body)
	h.Audit(r, support.Event{Name: "getpromotionactionmodal", Resource: "promotions", Tags: []string{"post", "promotions", "get-actionmodal"}}, body, resp, err)
	h.Respond(w, resp, err)
}

// Simulate handles POST /{promotionId}/simulate.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.ReadJSON(w, r)
	if !ok {
		return
	}

	resp, err := h.promotions.SimulateCampaign(support.Detached(r), h.Promotions(r), chi.URLParam(r, "promotionId"), support.User(r).UserID, body)
	h.Audit(r, support.Event{Name: "simulatepromotion", Resource: "promotions", Tags: []string{"post", "promotions", "simulate"}}, body, resp, err)
	h.Respond(w, resp, err)
}

// DeletePromotion handles PUT /{promotionId}/status/delete. The middleend
// calls the transition "cancel".
func (h *Handler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	change, body, ok := h.statusChange(w, r)
	if !ok {
		return
	}
	if change.Reason == "" {
		change.Reason = defaultDeleteReason
	}

	resp, err := h.promotions.UpdateStatus(support.Detached(r), h.Promotions(r), change, "cancel", actor(r))
	h.Audit(r, support.Event{Name: "deletepromotion", Resource: "promotions", Tags: []string{"put", "promotions", "delete-promotion"}}, body, resp, err)
	h.Respond(w, resp, err)
}

// UpdateStatus handles PUT /{promotionId}/status/{actionId}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	change, body, ok := h.statusChange(w, r)
	if !ok {
		return
	}

	var (
		resp   *middleend.Response
		err    error
		action = chi.URLParam(r, "actionId")
		ctx    = support.Detached(r)
		cfg    = h.Promotions(r)
	)
	switch action {
	case "approve", "reject":
		resp, err = h.promotions.ApproveRejectPromotion(ctx, cfg, change, action, actor(r))
	default:
		resp, err = h.promotions.UpdateStatus(ctx, cfg, change, action, actor(r))
	}

	h.Audit(r, support.Event{Name: "updatepromotionbyaction", Resource: "promotions", Tags: []string{"put", "promotion"}}, body, resp, err)
	h.Respond(w, resp, err)
}

// statusChange reads the transition body. The promotion in the body wins
// over the one in the path.
func (h *Handler) statusChange(w http.ResponseWriter, r *http.Request) (apppromotions.StatusChange, json.RawMessage, bool) {
	var change apppromotions.StatusChange
	body, ok := h.Decode(w, r, &change)
	if !ok {
		return change, nil, false
	}
	if change.PromotionID == "" {
		change.PromotionID = chi.URLParam(r, "promotionId")
	}
	return change, body, true
}

// PutAction handles PUT /actions?apiUrl.
func (h *Handler) PutAction(w http.ResponseWriter, r *http.Request) {
	apiURL, ok := h.apiURL(w, r)
	if !ok {
		return
	}
	body, ok := h.ReadJSON(w, r)
	if !ok {
		return
	}

	resp, err := h.promotions.Put(support.Detached(r), h.Promotions(r), apiURL, support.User(r).UserID, body)
	h.Audit(r, support.Event{Name: "updateoffer", Resource: "offers", Tags: []string{"put", "promotion"}}, body, resp, err)
	h.Respond(w, resp, err)
}

// PostAction handles POST /action?apiUrl.
func (h *Handler) PostAction(w http.ResponseWriter, r *http.Request) {
	apiURL, ok := h.apiURL(w, r)
	if !ok {
		return
	}
	body, ok := h.ReadJSON(w, r)
	if !ok {
		return
	}

	resp, err := h.promotions.Post(support.Detached(r), h.Promotions(r), apiURL, support.User(r).UserID, body)
	h.Audit(r, support.Event{Name: "addoffer", Resource: "offers", Tags: []string{"post", "offer", "validate"}}, body, resp, err)
	h.RespondOK(w, resp, err)
}

// apiURL returns the relative middleend path of the generic action routes.
func (h *Handler) apiURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	apiURL := strings.TrimPrefix(r.URL.Query().Get("apiUrl"), "/")
	if apiURL == "" || strings.Contains(apiURL, "..") {
		httpx.WriteError(w, http.StatusBadRequest, "invalid apiUrl", nil, h.Log)
		return "", false
	}
	return apiURL, true
}

// ValidateItem handles POST /{promotionId}/offers/validate.
func (h *Handler) ValidateItem(w http.ResponseWriter, r *http.Request) {
	var in appoffers.Input
	body, ok := h.Decode(w, r, &in)
	if !ok {
		return
	}
	in.PromotionID = chi.URLParam(r, "promotionId")

	resp, err := h.offers.ValidateItem(support.Detached(r), h.Promotions(r), in, support.User(r).UserID)
	h.Audit(r, support.Event{Name: "getandvalidateitems", Resource: "offers", Tags: []string{"post", "offer", "validate"}, NoResult: true}, body, resp, err)
	h.Respond(w, resp, err)
}

// GetOffer handles GET /{promotionId}/offers/{offerId}.
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	resp, err := h.offers.GetEditForm(support.Detached(r), h.Promotions(r), chi.URLParam(r, "promotionId"), chi.URLParam(r, "offerId"), support.User(r).UserID)
	h.Audit(r, support.Event{Name: "getoffer", Resource: "offers", Tags: []string{"get", "offer"}}, nil, resp, err)
	h.Respond(w, resp, err)
}

// EditOffer handles PUT /{promotionId}/offers/{offerId}.
func (h *Handler) EditOffer(w http.ResponseWriter, r *http.Request) {
	var in appoffers.Input
	body, ok := h.Decode(w, r, &in)
	if !ok {
		return
	}
	in.PromotionID = chi.URLParam(r, "promotionId")
	in.OfferID = chi.URLParam(r, "offerId")

	resp, err := h.offers.Edit(support.Detached(r), h.Promotions(r), in, support.User(r).UserID)
	h.Audit(r, support.Event{Name: "updateoffer", Resource: "offers", Tags: []string{"put", "offer", "update-promotion"}}, body, resp, err)
	h.Respond(w, resp, err)
}

// DeleteOffer handles DELETE /{promotionId}/offers/{offerId}.
func (h *Handler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	resp, err := h.offers.Delete(support.Detached(r), h.Promotions(r), chi.URLParam(r, "promotionId"), chi.URLParam(r, "offerId"), support.User(r).UserID)
	h.Audit(r, support.Event{Name: "deleteoffer", Resource: "offers", Tags: []string{"delete", "offer"}}, nil, resp, err)
	h.Respond(w, resp, err)
}

// ApproveOffer handles POST /{promotionId}/offers/{offerId}/approve.
func (h *Handler) ApproveOffer(w http.ResponseWriter, r *http.Request) {
	body, ok := h.ReadJSON(w, r)
	if !ok {
		return
	}

	resp, err := h.offers.Approve(support.Detached(r), h.Promotions(r), chi.URLParam(r, "promotionId"), chi.URLParam(r, "offerId"), support.User(r).UserID)
	h.Audit(r, support.Event{Name: "postapproveoffer", Resource: "offers", Tags: []string{"post", "offer", "approve"}}, body, resp, err)
	h.Respond(w, resp, err)
}

// UploadOffers handles POST /{promotionId}/offers/upload.
func (h *Handler) UploadOffers(w http.ResponseWriter, r *http.Request) {
	file, release, ok := h.ReadFile(w, r)
	if !ok {
		return
	}
	defer release()

	notice, err := h.promotions.UploadCSVFile(support.Detached(r), file, chi.URLParam(r, "promotionId"), support.User(r).UserID)
	h.Audit(r, support.Event{Name: "uploadfile", Resource: "offers", Tags: []string{"post", "offer", "file"}}, nil, nil, err)
	h.RespondValue(w, notice, err)
}

// CSVTemplate handles GET /csv/template by streaming the upstream file.
func (h *Handler) CSVTemplate(w http.ResponseWriter, r *http.Request) {
	resp, err := h.promotions.CSVTemplate(support.Detached(r), h.Promotions(r).SiteID)
	if err != nil {
		h.writeTemplateError(w, err)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "text/csv")
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.Log.WarnContext(r.Context(), "csv template stream interrupted", "error", err)
	}
}

// writeTemplateError answers 400 with the upstream body when there is one.
func (h *Handler) writeTemplateError(w http.ResponseWriter, err error) {
	var upstream *middleend.Error
	if errors.As(err, &upstream) && upstream.HasData() {
		httpx.WriteRaw(w, http.StatusBadRequest, upstream.Data, h.Log)
		return
	}
	httpx.WriteError(w, http.StatusBadRequest, err.Error(), nil, h.Log)
}

// Create handles POST /create.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := h.ReadJSON(w, r)
	if !ok {
		return
	}

	resp, err := h.promotions.CreatorFlow(support.Detached(r), h.Promotions(r), r.URL.Query(), actor(r), body)
	h.Audit(r, support.Event{Name: "updatepromotion", Resource: "promotions", Tags: []string{"post", "createpromotion"}}, body, resp, err)
	h.RespondOK(w, resp, err)
}

// ExecuteAction handles PUT /executeAction?id&action_id.
func (h *Handler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	resp, err := h.promotions.ExecuteAction(support.Detached(r), h.Promotions(r), query.Get("id"), query.Get("action_id"), actor(r))
	h.Audit(r, support.Event{Name: "executeaction", Resource: "promotions", Tags: []string{"put", "executeaction"}}, nil, resp, err)
	h.RespondOK(w, resp, err)
}

// UploadRequirements handles POST /{promotionId}/items/upload?type.
func (h *Handler) UploadRequirements(w http.ResponseWriter, r *http.Request) {
	file, release, ok := h.ReadFile(w, r)
	if !ok {
		return
	}
	defer release()

	resp, err := h.promotions.UploadCSVFileRequirements(support.Detached(r), file, chi.URLParam(r, "promotionId"), r.URL.Query().Get("type"), support.User(r).UserID)
	h.Audit(r, support.Event{Name: "uploadfilerequirements", Resource: "promotions", Tags: []string{"post", "file-requirements"}}, nil, resp, err)
	h.RespondOK(w, resp, err)
}

// DeleteRequirements handles DELETE /{promotionId}/items/upload?type&fileId.
func (h *Handler) DeleteRequirements(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	resp, err := h.promotions.DeleteFileRequirements(support.Detached(r), chi.URLParam(r, "promotionId"), query.Get("type"), query.Get("fileId"), support.User(r).UserID)
	h.Audit(r, support.Event{Name: "deletefilerequirements", Resource: "promotions", Tags: []string{"delete", "file-requirements"}}, nil, resp, err)
	h.RespondOK(w, resp, err)
}

// GetDuplicate handles GET /duplicate?promotionId&actionId.
func (h *Handler) GetDuplicate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	cfg := h.Promotions(r)

	resp, err := h.promotions.GetPromotion(support.Detached(r), cfg, query.Get("promotionId"), query.Get("actionId"), actor(r))
	h.Audit(r, support.Event{
		Name:     "getDuplicate",
		Resource: "promotions",
		Tags:     []string{"get", "promotions", "duplicate-promotions"},
		Previous: support.ConfigSnapshot(cfg),
	}, nil, resp, err)
	h.RespondOK(w, resp, err)
}

// PostDuplicate handles POST /duplicate?promotionId.
func (h *Handler) PostDuplicate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Promotion json.RawMessage `json:"promotion"`
	}
	body, ok := h.Decode(w, r, &payload)
	if !ok {
		return
	}
	cfg := h.Promotions(r)

	resp, err := h.promotions.DuplicateCampaign(support.Detached(r), cfg, r.URL.Query().Get("promotionId"), payload.Promotion, actor(r))
	h.Audit(r, support.Event{
		Name:     "postDuplicate",
		Resource: "promotions",
		Tags:     []string{"post", "promotions", "duplicate-promotions"},
		Previous: support.ConfigSnapshot(cfg),
	}, body, resp, err)
	h.RespondOK(w, resp, err)
}

// MassiveForm handles GET /offers/massive.
func (h *Handler) MassiveForm(w http.ResponseWriter, r *http.Request) {
	resp, err := h.massive.Form(support.Detached(r), h.Promotions(r), support.User(r).UserID, r.URL.Query())
	h.Respond(w, resp, err)
}

// MassiveUpload handles POST /offers/massive?offerType.
func (h *Handler) MassiveUpload(w http.ResponseWriter, r *http.Request) {
	file, release, ok := h.ReadFile(w, r)
	if !ok {
		return
	}
	defer release()
	cfg := h.Promotions(r)

	notice, err := h.massive.Upload(support.Detached(r), cfg, file, r.URL.Query().Get("offerType"), support.User(r).UserID)
	h.Audit(r, support.Event{
		Name:     "postMassiveOffers",
		Resource: "offers",
		Tags:     []string{"post", "offers", "massive-offers"},
		Previous: support.ConfigSnapshot(cfg),
	}, nil, nil, err)
	h.RespondValue(w, notice, err)
}

// MassiveModal handles GET /offers/massive/action.
func (h *Handler) MassiveModal(w http.ResponseWriter, r *http.Request) {
	resp, err := h.massive.Modal(support.Detached(r), h.Promotions(r), support.User(r).UserID, r.URL.Query())
	h.Respond(w, resp, err)
}
