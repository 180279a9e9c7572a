// Package httpHandler serves the /consignment routes of the API.
package httpHandler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"github.com/tradeguard/platform/services/authentication-service/authapi"
	"github.com/tradeguard/platform/services/consignment-service/compliance"
	"github.com/tradeguard/platform/services/consignment-service/report"
	"github.com/tradeguard/platform/services/consignment-service/service"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
	"github.com/tradeguard/platform/shared/apperrors"
	"github.com/tradeguard/platform/shared/contracts"
	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/middleware"
)

// MaxInvoiceBytes caps the uploaded commercial invoice.
const MaxInvoiceBytes = 10 << 20

// ConsignmentHandler holds the service the routes call into.
type ConsignmentHandler struct {
	service *service.ConsignmentService
	logger  *logging.Logger
}

func NewConsignmentHandler(svc *service.ConsignmentService, logger *logging.Logger) *ConsignmentHandler {
	return &ConsignmentHandler{service: svc, logger: logger.WithComponent("consignment-http")}
}

// RegisterRoutes mounts every route behind requireToken.
func (h *ConsignmentHandler) RegisterRoutes(rg *gin.RouterGroup, requireToken gin.HandlerFunc) {
	rg.Use(requireToken)
	rg.POST("/add-consignment", middleware.WrapHandler(h.addConsignment))
	rg.GET("/fetch-consignments", middleware.WrapHandler(h.fetchConsignments))
	rg.GET("/fetch-consignment/:uuid", middleware.WrapHandler(h.fetchConsignment))
	rg.GET("/download-invoice/:uuid", middleware.WrapHandler(h.downloadInvoice))
	rg.PUT("/update-compliance/:uuid", middleware.WrapHandler(h.updateCompliance))
	rg.POST("/compliance-check", middleware.WrapHandler(h.complianceCheck))
	rg.GET("/compliance/:uuid", middleware.WrapHandler(h.storedCompliance))
	rg.GET("/report/:uuid", middleware.WrapHandler(h.report))
	rg.POST("/search-hs-code", middleware.WrapHandler(h.searchHSCode))
}

// consignmentForm is the multipart body of add-consignment. Numbers are
// bound as text so a type mismatch can be reported per field.
type consignmentForm struct {
	SenderName      string `form:"sender_name" validate:"required"`
	SenderAddress   string `form:"sender_address" validate:"required"`
	SenderCountry   string `form:"sender_country" validate:"required,country"`
	SenderMail      string `form:"sender_mail" validate:"omitempty,email"`
	SenderPhone     string `form:"sender_phone"`
	ReceiverName    string `form:"receiver_name" validate:"required"`
	ReceiverAddress string `form:"receiver_address" validate:"required"`
	ReceiverCountry string `form:"receiver_country" validate:"required,country"`
	ShipmentID      string `form:"shipment_id" validate:"required"`
	ShipmentDate    string `form:"shipment_date" validate:"omitempty,iso_date"`
	PackageQuantity string `form:"PackageQuantity" validate:"required"`
	HSCode          string `form:"HS_code" validate:"required"`
	TotalWeight     string `form:"totalWeight" validate:"required"`
	ItemDesc        string `form:"Item_desc" validate:"required"`
	HandlingInst    string `form:"handling_inst"`
}

// toConsignment reports every bad field at once.
func (f consignmentForm) toConsignment() (contracts.Consignment, map[string]string) {
	details := map[string]string{}
	if err := middleware.GetValidator().Struct(f); err != nil {
		details = middleware.ValidationErrorFormatter(err)
	}

	c := contracts.Consignment{
		SenderName:      strings.TrimSpace(f.SenderName),
		SenderAddress:   f.SenderAddress,
		SenderCountry:   f.SenderCountry,
		SenderMail:      f.SenderMail,
		SenderPhone:     f.SenderPhone,
		ReceiverName:    strings.TrimSpace(f.ReceiverName),
		ReceiverAddress: f.ReceiverAddress,
		ReceiverCountry: f.ReceiverCountry,
		ShipmentID:      strings.TrimSpace(f.ShipmentID),
		ShipmentDate:    f.ShipmentDate,
		HSCode:          strings.TrimSpace(f.HSCode),
		ItemDesc:        f.ItemDesc,
		HandlingInst:    f.HandlingInst,
	}

	if _, missing := details["PackageQuantity"]; !missing {
		n, err := strconv.Atoi(strings.TrimSpace(f.PackageQuantity))
		switch {
		case err != nil:
			details["PackageQuantity"] = "expected int"
		case n < 0:
			details["PackageQuantity"] = "must be a non-negative integer"
		}
		c.PackageQuantity = n
	}
	if _, missing := details["totalWeight"]; !missing {
		w, err := strconv.ParseFloat(strings.TrimSpace(f.TotalWeight), 64)
		switch {
		case err != nil:
			details["totalWeight"] = "expected float"
		case w < 0:
			details["totalWeight"] = "must be a non-negative number"
		}
		c.TotalWeight = w
	}
	return c, details
}

func (h *ConsignmentHandler) addConsignment(c *gin.Context) error {
	principal, _ := authapi.PrincipalFrom(c)

	var form consignmentForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		return apperrors.ErrBadRequest("Invalid form body").Wrap(err)
	}
	consignment, details := form.toConsignment()

	invoice, err := readInvoice(c)
	if err != nil {
		details["commercial_invoice"] = err.Error()
	}
	if len(details) > 0 {
		return apperrors.ErrValidationWithFields("Data type mismatch", details)
	}
	consignment.CommercialInvoice = invoice

	created, err := h.service.CreateConsignment(c.Request.Context(), principal, consignment)
	if err != nil {
		return mapError(err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Consignment added successfully",
		"uuid":    created.UUID,
	})
	return nil
}

func readInvoice(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("commercial_invoice")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > MaxInvoiceBytes {
		return nil, fmt.Errorf("must be at most %d bytes", MaxInvoiceBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxInvoiceBytes))
}

func (h *ConsignmentHandler) fetchConsignments(c *gin.Context) error {
	list, err := h.service.ListConsignments(c.Request.Context())
	if err != nil {
		return mapError(err)
	}
	if len(list) == 0 {
		return apperrors.ErrNotFound("No consignments found")
	}
	c.JSON(http.StatusOK, list)
	return nil
}

// pathID parses :uuid. A malformed id cannot name a stored consignment.
func pathID(c *gin.Context) (uuid.UUID, *apperrors.AppError) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return uuid.Nil, apperrors.ErrNotFound("Consignment not found")
	}
	return id, nil
}

func (h *ConsignmentHandler) fetchConsignment(c *gin.Context) error {
	id, appErr := pathID(c)
	if appErr != nil {
		return appErr
	}
	consignment, err := h.service.GetConsignment(c.Request.Context(), id)
	if err != nil {
		return mapError(err)
	}
	c.JSON(http.StatusOK, consignment)
	return nil
}

func (h *ConsignmentHandler) downloadInvoice(c *gin.Context) error {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return apperrors.ErrNotFound("Invoice not found")
	}
	name, data, err := h.service.Invoice(c.Request.Context(), id)
	if err != nil {
		return mapError(err)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", data)
	return nil
}

type updateComplianceRequest struct {
	Compliant string `json:"compliant"`
}

func (h *ConsignmentHandler) updateCompliance(c *gin.Context) error {
	principal, _ := authapi.PrincipalFrom(c)
	id, appErr := pathID(c)
	if appErr != nil {
		return appErr
	}
	var req updateComplianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return apperrors.ErrBadRequest("Invalid compliance status")
	}

	err := h.service.UpdateCompliance(c.Request.Context(), principal, id, contracts.ComplianceStatus(req.Compliant))
	if err != nil {
		return mapError(err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Compliance status updated successfully"})
	return nil
}

func (h *ConsignmentHandler) complianceCheck(c *gin.Context) error {
	var payload shipment.FormPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		return apperrors.ErrBadRequest("Invalid request body")
	}
	// Scoring never fails: a value that does not parse is scored as missing
	// and reported next to the result.
	record, err := payload.ToRecord()
	fe, _ := shipment.AsFieldErrors(err)
	c.JSON(http.StatusOK, ComplianceCheckResponse{Result: h.service.Score(record), FieldErrors: fe})
	return nil
}

// ComplianceCheckResponse is the score of a posted form plus the fields that
// could not be read.
type ComplianceCheckResponse struct {
	compliance.Result
	FieldErrors shipment.FieldErrors `json:"fieldErrors,omitempty"`
}

// ComplianceResponse is a stored consignment's score.
type ComplianceResponse struct {
	UUID       uuid.UUID `json:"uuid"`
	ShipmentID string    `json:"shipment_id"`
	compliance.Result
}

func (h *ConsignmentHandler) storedCompliance(c *gin.Context) error {
	id, appErr := pathID(c)
	if appErr != nil {
		return appErr
	}
	consignment, result, err := h.service.ScoreConsignment(c.Request.Context(), id)
	if err != nil {
		return mapError(err)
	}
	c.JSON(http.StatusOK, ComplianceResponse{UUID: consignment.UUID, ShipmentID: consignment.ShipmentID, Result: result})
	return nil
}

func (h *ConsignmentHandler) report(c *gin.Context) error {
	id, appErr := pathID(c)
	if appErr != nil {
		return appErr
	}
	rep, err := h.service.Report(c.Request.Context(), id)
	if err != nil {
		return mapError(err)
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, rep); err != nil {
		return apperrors.ErrInternal("").Wrap(err)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return nil
}

type searchHSCodeRequest struct {
	MainCategory       string `json:"main_category" validate:"required"`
	SubCategory        string `json:"sub_category" validate:"required"`
	DestinationCountry string `json:"destination_country" validate:"required,country"`
}

func (h *ConsignmentHandler) searchHSCode(c *gin.Context) error {
	var req searchHSCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return apperrors.ErrBadRequest("Invalid request body")
	}
	if appErr := middleware.ValidateStruct(req); appErr != nil {
		return appErr
	}
	code, err := h.service.LookupHSCode(req.MainCategory, req.SubCategory, shipment.Country(req.DestinationCountry))
	if err != nil {
		return mapError(err)
	}
	c.JSON(http.StatusOK, code)
	return nil
}
