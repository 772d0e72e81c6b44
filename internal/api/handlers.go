package api

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rawblock/nicefield/internal/apierr"
	"github.com/rawblock/nicefield/internal/dispatch"
	"github.com/rawblock/nicefield/internal/kernel"
	"github.com/rawblock/nicefield/internal/metrics"
	"github.com/rawblock/nicefield/internal/store"
	"github.com/rawblock/nicefield/internal/validate"
	"github.com/rawblock/nicefield/pkg/models"
	"github.com/rs/zerolog/log"
)

// Handler wires the HTTP front to the dispatcher, store, validator and
// progress hub. It is a thin shell: every decision of consequence lives
// in the packages it calls.
type Handler struct {
	st   *store.Store
	disp *dispatch.Dispatcher
	hub  *Hub
}

func NewHandler(st *store.Store, disp *dispatch.Dispatcher, hub *Hub) *Handler {
	return &Handler{st: st, disp: disp, hub: hub}
}

func writeErr(c *gin.Context, err *apierr.Error) {
	c.JSON(err.HTTPStatus(), errorResponse{Error: string(err.Kind), Message: err.Message})
}

func claimResponseFor(field *models.Field, publicClaimID string) ClaimResponse {
	return ClaimResponse{
		ClaimID:    publicClaimID,
		Base:       field.Base,
		RangeStart: field.RangeStart,
		RangeEnd:   field.RangeEnd,
		RangeSize:  field.RangeSize,
	}
}

func clientIP(c *gin.Context) string { return c.ClientIP() }

// issueClaim is the shared path for /claim, /claim/detailed and
// /claim/validate: dispatch a field under the biased policy, append an
// immutable claim record, and broadcast the event.
func (h *Handler) issueClaim(c *gin.Context, mode models.SearchMode) (*models.Field, models.Claim, bool) {
	field, err := h.disp.ClaimDetailed(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("claim dispatch failed")
		writeErr(c, apierr.Internalf("failed to dispatch a claim"))
		return nil, models.Claim{}, false
	}
	if field == nil {
		writeErr(c, apierr.NotFoundf("no eligible field available"))
		return nil, models.Claim{}, false
	}

	claim, err := h.st.InsertClaim(c.Request.Context(), field.FieldID, mode, clientIP(c))
	if err != nil {
		log.Error().Err(err).Msg("failed to record claim")
		writeErr(c, apierr.Internalf("failed to record claim"))
		return nil, models.Claim{}, false
	}

	metrics.ClaimsIssued.WithLabelValues(string(mode), "biased").Inc()
	broadcastEvent(h.hub, "claim_issued", claimResponseFor(field, claim.PublicID.String()))
	return field, claim, true
}

// HandleClaim serves GET /claim and GET /claim/detailed: a detailed-mode
// claim under the 80/20 Next/Random, 80/20 max_cl=1/2 biased policy.
func (h *Handler) HandleClaim(c *gin.Context) {
	field, claim, ok := h.issueClaim(c, models.SearchModeDetailed)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, claimResponseFor(field, claim.PublicID.String()))
}

// HandleClaimNiceonly serves GET /claim/niceonly from the pre-claim queue.
func (h *Handler) HandleClaimNiceonly(c *gin.Context) {
	field, err := h.disp.ClaimNiceonly(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("niceonly claim dispatch failed")
		writeErr(c, apierr.Internalf("failed to dispatch a claim"))
		return
	}
	if field == nil {
		writeErr(c, apierr.NotFoundf("no eligible field available"))
		return
	}

	claim, err := h.st.InsertClaim(c.Request.Context(), field.FieldID, models.SearchModeNiceonly, clientIP(c))
	if err != nil {
		log.Error().Err(err).Msg("failed to record claim")
		writeErr(c, apierr.Internalf("failed to record claim"))
		return
	}

	metrics.ClaimsIssued.WithLabelValues("niceonly", "preclaim_queue").Inc()
	resp := claimResponseFor(field, claim.PublicID.String())
	broadcastEvent(h.hub, "claim_issued", resp)
	c.JSON(http.StatusOK, resp)
}

// HandleClaimValidate serves GET /claim/validate: a detailed claim plus the
// coordinator's own expected niceonly numbers, for workers that opt into a
// local consistency check against their own kernel build.
func (h *Handler) HandleClaimValidate(c *gin.Context) {
	field, claim, ok := h.issueClaim(c, models.SearchModeDetailed)
	if !ok {
		return
	}

	lo, okLo := new(big.Int).SetString(field.RangeStart, 10)
	hi, okHi := new(big.Int).SetString(field.RangeEnd, 10)
	resp := ValidateClaimResponse{ClaimResponse: claimResponseFor(field, claim.PublicID.String())}
	if okLo && okHi {
		for _, n := range kernel.ProcessNiceonly(lo, hi, field.Base) {
			resp.ExpectedNiceNumbers = append(resp.ExpectedNiceNumbers, models.NiceNumber{
				Number:     n.String(),
				NumUniques: field.Base,
			})
		}
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSubmit serves POST /submit: looks up the claim, validates the
// payload against its field, and inserts the submission. It never writes
// to the field row — only the consensus engine does that.
func (h *Handler) HandleSubmit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErr(c, apierr.BadRequestf("malformed submit payload: "+err.Error()))
		return
	}

	publicID, err := uuid.Parse(req.ClaimID)
	if err != nil {
		writeErr(c, apierr.BadRequestf("claim_id is not a valid id"))
		return
	}

	ctx := c.Request.Context()
	claim, err := h.st.GetClaimByPublicID(ctx, publicID)
	if err != nil {
		writeErr(c, apierr.NotFoundf("unknown claim_id"))
		return
	}

	field, err := h.st.GetFieldByID(ctx, claim.FieldID)
	if err != nil {
		writeErr(c, apierr.Internalf("failed to load claimed field"))
		return
	}

	vreq := validate.Request{
		Username:      req.Username,
		ClientVersion: req.ClientVersion,
		Numbers:       req.NiceNumbers,
		Distribution:  req.UniqueDistribution,
	}
	sub, verr := validate.Submission(field, claim, vreq)
	if verr != nil {
		metrics.SubmissionsRejected.WithLabelValues(string(claim.SearchMode), string(verr.Kind)).Inc()
		writeErr(c, verr)
		return
	}
	sub.UserIP = clientIP(c)

	if _, err := h.st.InsertSubmission(ctx, sub); err != nil {
		log.Error().Err(err).Msg("failed to insert submission")
		writeErr(c, apierr.Internalf("failed to record submission"))
		return
	}

	metrics.SubmissionsAccepted.WithLabelValues(string(claim.SearchMode)).Inc()
	broadcastEvent(h.hub, "submission_accepted", gin.H{
		"field_id": claim.FieldID,
		"mode":     claim.SearchMode,
		"username": req.Username,
	})
	c.JSON(http.StatusOK, "OK")
}

// HandleHealth reports service status and the pre-claim queue's depth —
// the one piece of in-process state worth surfacing.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "operational",
		"service":         "nicefield-coordinator",
		"preclaimQueueDepth": h.disp.QueueDepth(),
	})
}

// HandleListConsensusFlags serves GET /api/v1/consensus/flags.
func (h *Handler) HandleListConsensusFlags(c *gin.Context) {
	flags, err := h.st.ListUnresolvedConsensusFlags(c.Request.Context())
	if err != nil {
		writeErr(c, apierr.Internalf("failed to load consensus flags"))
		return
	}
	c.JSON(http.StatusOK, flags)
}

// HandleResolveConsensusFlag serves POST /api/v1/consensus/flags/:field_id/resolve.
func (h *Handler) HandleResolveConsensusFlag(c *gin.Context) {
	id, err := parseInt64Param(c, "field_id")
	if err != nil {
		writeErr(c, apierr.BadRequestf("field_id must be an integer"))
		return
	}
	if err := h.st.ResolveConsensusFlag(c.Request.Context(), id); err != nil {
		writeErr(c, apierr.Internalf("failed to resolve consensus flag"))
		return
	}
	c.JSON(http.StatusOK, "OK")
}

func parseInt64Param(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
