package coordinator

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"hardhat-gateway/internal/access"
	"hardhat-gateway/internal/domain/code"
	"hardhat-gateway/internal/domain/profile"
	"hardhat-gateway/internal/domain/submission"
	"hardhat-gateway/internal/repository"
	apperrors "hardhat-gateway/pkg/errors"

	"github.com/google/uuid"
)

const (
	kickoffTimeout    = 45 * time.Second
	timeoutErrMessage = "generation did not complete in time"
	filenameIDLength  = 8
)

// primaryDescriptionFields: at least one must be non-empty for a submission
// to be accepted.
var primaryDescriptionFields = []string{"projectTask", "aiTaskDescription"}

// aiInputFields are routed to the generator's prompt context instead of the
// template placeholder bag.
var aiInputFields = map[string]bool{
	"projectTask":       true,
	"aiTaskDescription": true,
}

// profileDefaultKeys are remembered across submissions to prefill the form.
var profileDefaultKeys = map[string]bool{
	"companyName":    true,
	"companyAddress": true,
	"companyPhone":   true,
	"companyEmail":   true,
	"companyLogoUrl": true,
	"permits":        true,
}

// GeneratorClient is the external document generator collaborator.
type GeneratorClient interface {
	Kickoff(ctx context.Context, submissionID string) error
	FetchArtifact(ctx context.Context, submissionID string, format submission.Format) (io.ReadCloser, error)
}

// ObjectStore fetches artifacts the generator published to object storage.
type ObjectStore interface {
	Fetch(ctx context.Context, path string) (io.ReadCloser, error)
}

// FieldKind discriminates the submitted form field union.
type FieldKind int

const (
	TextField FieldKind = iota
	FileField
)

// Field is one submitted form part. Text fields carry Value; file fields
// carry the upload metadata.
type Field struct {
	Kind        FieldKind
	Name        string
	Value       string
	Filename    string
	Size        int64
	ContentType string
}

type SubmitInput struct {
	Product       code.Product
	CustomerEmail string
	AccessCode    string
	Fields        []Field
}

// StatusResult is the polling contract: status derives from the outputs row
// on every call, so repeated polls with no new writes return the same answer.
type StatusResult struct {
	Status        submission.Status
	DownloadReady bool
	HasPDF        bool
	HasDocx       bool
	Error         string
	Product       string
}

// Download is a resolved artifact stream; the caller must close Body.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
}

// Coordinator accepts completed forms, hands them to the external generator
// and answers the polling and download contracts.
type Coordinator struct {
	submissions repository.SubmissionRepository
	profiles    repository.ProfileRepository
	generator   GeneratorClient
	objects     ObjectStore
	maxPending  time.Duration
	logger      *log.Logger
	now         func() time.Time
}

func New(
	submissions repository.SubmissionRepository,
	profiles repository.ProfileRepository,
	generator GeneratorClient,
	objects ObjectStore,
	maxPending time.Duration,
	logger *log.Logger,
) *Coordinator {
	return &Coordinator{
		submissions: submissions,
		profiles:    profiles,
		generator:   generator,
		objects:     objects,
		maxPending:  maxPending,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit validates the form, persists the submission and kicks generation off
// asynchronously. A second submission for the same code creates an
// independent row; codes are not consumed by submitting.
func (c *Coordinator) Submit(ctx context.Context, input SubmitInput) (*submission.Submission, error) {
	if input.Product == "" {
		return nil, apperrors.MissingInput("missing or invalid product")
	}

	create := submission.CreateInput{
		Product:       string(input.Product),
		CustomerEmail: access.CanonicalEmail(input.CustomerEmail),
		AccessCode:    input.AccessCode,
		Placeholders:  map[string]string{},
		Uploads:       map[string]submission.Upload{},
		AIInput:       map[string]string{},
	}

	for _, f := range input.Fields {
		switch f.Kind {
		case FileField:
			if f.Size > 0 {
				create.Uploads[f.Name] = submission.Upload{
					Name:        f.Filename,
					Size:        f.Size,
					ContentType: f.ContentType,
				}
			}
		case TextField:
			if aiInputFields[f.Name] {
				create.AIInput[f.Name] = f.Value
			} else {
				create.Placeholders[f.Name] = f.Value
			}
		}
	}

	if !hasPrimaryDescription(create.AIInput) {
		return nil, apperrors.MissingInput("a project description is required")
	}

	sub, err := c.submissions.Create(ctx, create)
	if err != nil {
		return nil, err
	}

	// Both side effects below are best-effort: the submission is already
	// durable, and outputs arrive by side channel.
	c.saveProfileDefaults(ctx, create)

	go func() {
		kctx, cancel := context.WithTimeout(context.Background(), kickoffTimeout)
		defer cancel()
		if err := c.generator.Kickoff(kctx, sub.ID.String()); err != nil {
			c.logger.Printf("docgen kickoff failed for submission %s: %v", sub.ID, err)
		}
	}()

	return sub, nil
}

func hasPrimaryDescription(aiInput map[string]string) bool {
	for _, name := range primaryDescriptionFields {
		if strings.TrimSpace(aiInput[name]) != "" {
			return true
		}
	}
	return false
}

func (c *Coordinator) saveProfileDefaults(ctx context.Context, create submission.CreateInput) {
	if create.CustomerEmail == "" {
		return
	}

	values := map[string]any{}
	for key, value := range create.Placeholders {
		if profileDefaultKeys[key] && value != "" {
			values[key] = value
		}
	}
	if len(values) == 0 {
		return
	}

	d := &profile.Defaults{
		Email:   create.CustomerEmail,
		Product: create.Product,
		Values:  values,
	}
	if err := c.profiles.Upsert(ctx, d); err != nil {
		c.logger.Printf("profile defaults save failed for %s/%s: %v", d.Email, d.Product, err)
	}
}

// Status reads the current submission state. A submission still pending past
// the max-pending window is moved to a terminal error exactly once.
func (c *Coordinator) Status(ctx context.Context, id uuid.UUID) (*StatusResult, error) {
	sub, err := c.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status := sub.DeriveStatus()
	if status == submission.StatusPending && c.maxPending > 0 && c.now().Sub(sub.CreatedAt) > c.maxPending {
		expired, err := c.submissions.SetErrorIfPending(ctx, id, timeoutErrMessage)
		if err != nil {
			c.logger.Printf("failed to expire stale submission %s: %v", id, err)
		}
		if expired || err != nil {
			return &StatusResult{
				Status:  submission.StatusError,
				Error:   timeoutErrMessage,
				Product: sub.Product,
			}, nil
		}
		// The row left pending between the read and the flip; report its
		// terminal state instead of the timeout.
		sub, err = c.submissions.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		status = sub.DeriveStatus()
	}

	result := &StatusResult{
		Status:  status,
		Product: sub.Product,
	}
	switch status {
	case submission.StatusError:
		result.Error = sub.Outputs.Error
	case submission.StatusReady:
		result.HasPDF = sub.Outputs.PDFPath != ""
		result.HasDocx = sub.Outputs.DocxPath != ""
		result.DownloadReady = true
	}

	return result, nil
}

// Resolve the stored output path for the format and stream the artifact from
// wherever the generator put it.
func (c *Coordinator) Download(ctx context.Context, id uuid.UUID, format submission.Format) (*Download, error) {
	sub, err := c.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path := sub.Outputs.PathFor(format)
	if path == "" {
		return nil, apperrors.NotFound(fmt.Sprintf("%s not available", strings.ToUpper(string(format))))
	}

	var body io.ReadCloser
	if isObjectPath(path) {
		if c.objects == nil {
			return nil, apperrors.NotConfigured("artifact object store")
		}
		body, err = c.objects.Fetch(ctx, path)
	} else {
		body, err = c.generator.FetchArtifact(ctx, id.String(), format)
	}
	if err != nil {
		return nil, err
	}

	return &Download{
		Body:        body,
		Filename:    fmt.Sprintf("%s-%s.%s", sub.Product, shortID(id), format),
		ContentType: format.ContentType(),
	}, nil
}

func isObjectPath(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

func shortID(id uuid.UUID) string {
	s := id.String()
	if len(s) > filenameIDLength {
		return s[:filenameIDLength]
	}
	return s
}
