package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthhub/internal/app"
	"healthhub/internal/model"
	"healthhub/internal/transport/http/response"
)

type ProfileHandler struct {
	profileService     *app.ProfileService
	onboardingService  *app.OnboardingService
	measurementService *app.MeasurementService
}

type CompleteOnboardingRequest struct {
	DisplayName string `json:"display_name" binding:"max=64"`
}

func NewProfileHandler(profiles *app.ProfileService, onboarding *app.OnboardingService, measurements *app.MeasurementService) *ProfileHandler {
	return &ProfileHandler{
		profileService:     profiles,
		onboardingService:  onboarding,
		measurementService: measurements,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	view, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "load profile failed")
		return
	}
	response.OK(c, view)
}

func (h *ProfileHandler) RefreshProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	view, err := h.profileService.Refresh(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "refresh profile failed")
		return
	}
	response.OK(c, view)
}

func (h *ProfileHandler) GetOnboarding(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	draft, err := h.onboardingService.Draft(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "load onboarding failed")
		return
	}
	response.OK(c, draft)
}

func (h *ProfileHandler) SaveOnboardingStep(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	draft, err := h.onboardingService.SaveStep(c.Request.Context(), userID, c.Param("step"), body)
	if err != nil {
		writeError(c, err, "save onboarding step failed")
		return
	}
	response.OK(c, draft)
}

func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CompleteOnboardingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
	}

	profile, err := h.onboardingService.Complete(c.Request.Context(), userID, req.DisplayName)
	if err != nil {
		writeError(c, err, "complete onboarding failed")
		return
	}
	response.OK(c, app.ProfileView{Profile: *profile, Completed: true})
}

func (h *ProfileHandler) ListMeasurements(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	state, err := h.measurementService.List(c.Request.Context(), userID, feedQuery(c))
	if err != nil {
		writeErrorWithData(c, err, "list measurements failed", state)
		return
	}
	response.OK(c, state)
}

func (h *ProfileHandler) RecordMeasurement(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req model.MeasurementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	measurement, err := h.measurementService.Record(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err, "record measurement failed")
		return
	}
	response.OK(c, measurement)
}
