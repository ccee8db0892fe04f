package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"hardhat-gateway/internal/access"
	"hardhat-gateway/internal/coordinator"
	"hardhat-gateway/internal/domain/code"
	"hardhat-gateway/internal/domain/submission"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	thanksPath       = "/thanks"
	maxPromptEcho    = 100
	defaultDLFormat  = "docx"
	submissionParam  = "id"
	formatQueryParam = "format"
)

// SubmissionHandler accepts completed forms, redeems standalone tokens and
// answers the status-polling and download endpoints.
type SubmissionHandler struct {
	coord        *coordinator.Coordinator
	subscription *access.SubscriptionVerifier
	oneTime      *access.OneTimeVerifier
	siteBase     string
}

func NewSubmissionHandler(
	coord *coordinator.Coordinator,
	subscription *access.SubscriptionVerifier,
	oneTime *access.OneTimeVerifier,
	siteBase string,
) *SubmissionHandler {
	return &SubmissionHandler{
		coord:        coord,
		subscription: subscription,
		oneTime:      oneTime,
		siteBase:     siteBase,
	}
}

// Submit handles the multipart form post from the forms page. The code is
// validated subscription-style (reusable until expiry) and the customer email
// comes from the matched access link. Success redirects to the thanks page.
func (h *SubmissionHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()

	plainCode := c.FormValue(codeParam)
	rawProduct := c.FormValue(productParam)

	if plainCode == "" {
		return respondError(c, http.StatusBadRequest, "Missing code")
	}
	product, ok := code.Parse(rawProduct)
	if !ok {
		return respondError(c, http.StatusBadRequest, "Missing or invalid product")
	}

	link, err := h.subscription.VerifyCode(ctx, plainCode)
	if err != nil {
		return err
	}

	fields, err := collectFields(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Malformed form data")
	}

	sub, err := h.coord.Submit(ctx, coordinator.SubmitInput{
		Product:       product,
		CustomerEmail: link.Email,
		AccessCode:    access.NormalizeCode(plainCode),
		Fields:        fields,
	})
	if err != nil {
		return err
	}

	target, err := url.Parse(h.siteBase + thanksPath)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, errCodeServerError)
	}
	q := target.Query()
	q.Set(productParam, string(product))
	q.Set(submissionParam, sub.ID.String())
	target.RawQuery = q.Encode()

	return c.Redirect(http.StatusSeeOther, target.String())
}

// collectFields turns the multipart form into the coordinator's field union.
// The code and product parts are routing data, not form content.
func collectFields(c echo.Context) ([]coordinator.Field, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	var fields []coordinator.Field
	for name, values := range form.Value {
		if name == codeParam || name == productParam {
			continue
		}
		for _, value := range values {
			fields = append(fields, coordinator.Field{
				Kind:  coordinator.TextField,
				Name:  name,
				Value: value,
			})
		}
	}

	for name, files := range form.File {
		for _, file := range files {
			fields = append(fields, coordinator.Field{
				Kind:        coordinator.FileField,
				Name:        name,
				Filename:    file.Filename,
				Size:        file.Size,
				ContentType: file.Header.Get(echo.HeaderContentType),
			})
		}
	}

	return fields, nil
}

// RedeemToken is the standalone one-time entry path: the token is consumed on
// first success and the prompt is echoed back through the thanks redirect.
func (h *SubmissionHandler) RedeemToken(c echo.Context) error {
	token := c.FormValue("token")
	prompt := c.FormValue("prompt")

	if token == "" || prompt == "" {
		return respondError(c, http.StatusBadRequest, "Missing token or prompt")
	}

	if _, err := h.oneTime.VerifyToken(c.Request().Context(), token); err != nil {
		return err
	}

	target, err := url.Parse(h.siteBase + thanksPath)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, errCodeServerError)
	}
	if len(prompt) > maxPromptEcho {
		prompt = prompt[:maxPromptEcho]
	}
	q := target.Query()
	q.Set("prompt", prompt)
	target.RawQuery = q.Encode()

	return c.Redirect(http.StatusSeeOther, target.String())
}

// Status answers the polling contract.
func (h *SubmissionHandler) Status(c echo.Context) error {
	id, err := uuid.Parse(c.QueryParam(submissionParam))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Missing submission ID")
	}

	result, err := h.coord.Status(c.Request().Context(), id)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"status":         string(result.Status),
		"download_ready": result.DownloadReady,
		"has_pdf":        result.HasPDF,
		"has_docx":       result.HasDocx,
		"product":        result.Product,
	}
	if result.Error != "" {
		body[jsonKeyError] = result.Error
	}

	return c.JSON(http.StatusOK, body)
}

// Download streams a generated artifact with an attachment disposition.
func (h *SubmissionHandler) Download(c echo.Context) error {
	id, err := uuid.Parse(c.QueryParam(submissionParam))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Missing submission ID")
	}

	raw := c.QueryParam(formatQueryParam)
	if raw == "" {
		raw = defaultDLFormat
	}
	format, ok := submission.ParseFormat(raw)
	if !ok {
		return respondError(c, http.StatusBadRequest, `Invalid format. Use "pdf" or "docx"`)
	}

	dl, err := h.coord.Download(c.Request().Context(), id, format)
	if err != nil {
		return err
	}
	defer dl.Body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, dl.Filename))

	return c.Stream(http.StatusOK, dl.ContentType, dl.Body)
}
