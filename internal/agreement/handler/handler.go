package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement"
	"github.com/inkpact/inkpact/backend/go-services/internal/agreement/service"
	"github.com/inkpact/inkpact/backend/go-services/internal/pdf"
	"github.com/inkpact/inkpact/backend/go-services/pkg/metrics"
	"github.com/inkpact/inkpact/backend/go-services/pkg/middleware"
)

type signatureBody struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type createBody struct {
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	InviteeEmails []string       `json:"inviteeEmails"`
	Signature     *signatureBody `json:"signature,omitempty"`
}

// RegisterAgreementRoutes mounts the agreement API under /api/agreements.
// Search and download are public reads; everything else requires a verified
// identity, and authorization derives only from that identity.
func RegisterAgreementRoutes(r *gin.Engine, svc *service.Service, auth gin.HandlerFunc) {
	grp := r.Group("/api/agreements")

	grp.GET("/search", func(c *gin.Context) {
		list, err := svc.Search(c.Request.Context(), c.Query("title"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	grp.GET("/:id/download", func(c *gin.Context) {
		a, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		data, err := renderAgreement(a)
		if err != nil {
			metrics.PDFRenders.WithLabelValues("error").Inc()
			writeError(c, err)
			return
		}
		metrics.PDFRenders.WithLabelValues("ok").Inc()
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "agreement-"+a.ID+".pdf"))
		c.Data(http.StatusOK, "application/pdf", data)
	})

	authed := grp.Group("", auth)

	authed.POST("/create", func(c *gin.Context) {
		var req createBody
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		params := service.CreateParams{
			Title:         req.Title,
			Content:       req.Content,
			CreatorID:     middleware.Subject(c),
			CreatorEmail:  middleware.Email(c),
			InviteeEmails: req.InviteeEmails,
		}
		if req.Signature != nil {
			params.InitialSignature = &agreement.Signature{
				Email: req.Signature.Email,
				Type:  agreement.SignatureType(req.Signature.Type),
				Value: req.Signature.Value,
			}
		}
		a, err := svc.Create(c.Request.Context(), params)
		if err != nil {
			writeError(c, err)
			return
		}
		metrics.AgreementsCreated.Inc()
		c.JSON(http.StatusCreated, gin.H{"message": "Agreement created.", "agreement": a})
	})

	authed.GET("/my-agreements", func(c *gin.Context) {
		list, err := svc.MyAgreements(c.Request.Context(), middleware.Subject(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"agreements": list})
	})

	authed.GET("/pending-to-sign", func(c *gin.Context) {
		list, err := svc.PendingToSign(c.Request.Context(), middleware.Email(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	authed.GET("/all", func(c *gin.Context) {
		list, err := svc.FullySignedInvolving(c.Request.Context(), middleware.Email(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	authed.POST("/:id/sign", func(c *gin.Context) {
		var req signatureBody
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sig := agreement.Signature{
			Email: req.Email,
			Type:  agreement.SignatureType(req.Type),
			Value: req.Value,
		}
		a, err := svc.Sign(c.Request.Context(), c.Param("id"), middleware.Email(c), sig)
		if err != nil {
			metrics.SignaturesRecorded.WithLabelValues("rejected").Inc()
			writeError(c, err)
			return
		}
		metrics.SignaturesRecorded.WithLabelValues("recorded").Inc()

		resp := gin.H{"message": "Signed successfully", "agreement": a}
		// preview is best-effort: absent until both slots are signed
		if data, err := renderAgreement(a); err == nil {
			resp["previewPdf"] = base64.StdEncoding.EncodeToString(data)
		}
		c.JSON(http.StatusOK, resp)
	})

	authed.POST("/:id/remove-signature", func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := svc.RemoveSignature(c.Request.Context(), c.Param("id"), middleware.Subject(c), req.Email)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Signature removed successfully", "agreement": a})
	})
}

// renderAgreement splits signatures into the creator and first non-creator
// slot and renders the PDF.
func renderAgreement(a *agreement.Agreement) ([]byte, error) {
	creatorSig := a.SignatureFor(a.CreatorEmail)
	var recipientSig *agreement.Signature
	for i := range a.SignedBy {
		if a.SignedBy[i].Email != a.CreatorEmail {
			recipientSig = &a.SignedBy[i]
			break
		}
	}
	return pdf.Render(a, creatorSig, recipientSig)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotAParty), errors.Is(err, service.ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Agreement not found"})
	case errors.Is(err, service.ErrAlreadySigned):
		c.JSON(http.StatusConflict, gin.H{"error": "Already signed"})
	case errors.Is(err, agreement.ErrUnsupportedImageFormat), errors.Is(err, pdf.ErrMissingSignature):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
