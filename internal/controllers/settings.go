package controllers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"invoice-settlement/internal/billing"
	"invoice-settlement/internal/storage"
)

// ImageStore keeps uploaded branding images.
type ImageStore interface {
	SaveImage(ctx context.Context, kind, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
}

type SettingsController struct {
	Billing *billing.Service
	Images  ImageStore
}

type settingsPayload struct {
	CompanyName    *string `json:"company_name" form:"company_name"`
	CompanyAddress *string `json:"company_address" form:"company_address"`
	CompanyPhone   *string `json:"company_phone" form:"company_phone"`
	CompanyEmail   *string `json:"company_email" form:"company_email"`
	FooterNote     *string `json:"footer_note" form:"footer_note"`
}

func (c SettingsController) Get(ctx *gin.Context) {
	s, err := c.Billing.PdfSettings(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, s)
}

// Save updates the text fields that were sent and replaces the logo or
// signature when a file is uploaded under that name.
func (c SettingsController) Save(ctx *gin.Context) {
	var payload settingsPayload
	if err := ctx.ShouldBind(&payload); err != nil {
		badRequest(ctx, err.Error())
		return
	}
	rc := ctx.Request.Context()
	s, err := c.Billing.PdfSettings(rc)
	if err != nil {
		respondError(ctx, err)
		return
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&s.CompanyName, payload.CompanyName)
	set(&s.CompanyAddress, payload.CompanyAddress)
	set(&s.CompanyPhone, payload.CompanyPhone)
	set(&s.CompanyEmail, payload.CompanyEmail)
	set(&s.FooterNote, payload.FooterNote)

	var replaced, uploaded []string
	for _, img := range []struct {
		field string
		dst   *string
	}{
		{"logo", &s.LogoPath},
		{"signature", &s.SignaturePath},
	} {
		ref, ok := c.upload(ctx, img.field)
		if !ok {
			c.discard(rc, uploaded)
			return
		}
		if ref == "" {
			continue
		}
		uploaded = append(uploaded, ref)
		if *img.dst != "" {
			replaced = append(replaced, *img.dst)
		}
		*img.dst = ref
	}

	if err := c.Billing.SavePdfSettings(rc, s); err != nil {
		c.discard(rc, uploaded)
		respondError(ctx, err)
		return
	}
	c.discard(rc, replaced)
	ctx.JSON(http.StatusOK, s)
}

// upload stores the file sent under field. An absent file yields "".
func (c SettingsController) upload(ctx *gin.Context, field string) (string, bool) {
	if !strings.HasPrefix(ctx.ContentType(), "multipart/") {
		return "", true
	}
	fh, err := ctx.FormFile(field)
	if err == http.ErrMissingFile {
		return "", true
	}
	if err != nil {
		badRequest(ctx, err.Error())
		return "", false
	}
	if !storage.ImageTypes[strings.ToLower(filepath.Ext(fh.Filename))] {
		invalid(ctx, field, field+" must be a png or jpeg image")
		return "", false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(ctx, err)
		return "", false
	}
	defer f.Close()
	ref, err := c.Images.SaveImage(ctx.Request.Context(), field, fh.Filename, f)
	if err != nil {
		respondError(ctx, err)
		return "", false
	}
	return ref, true
}

func (c SettingsController) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := c.Images.Remove(ctx, ref); err != nil {
			log := httpLog()
			log.Warn().Err(err).Str("ref", ref).Msg("could not remove branding image")
		}
	}
}
