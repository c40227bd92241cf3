package stubbackend

import (
	"fmt"

	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/slide"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type presentation struct {
	balanceSheet   string
	companyProfile string
	result         *generated
}

type generated struct {
	slides   []slide.Spec
	metadata slide.Metadata
	filename string
}

func (s *Server) pptUpload(c *fiber.Ctx) error {
	var errs []string

	balanceSheet, bsErr := c.FormFile("balance_sheet")
	profile, cpErr := c.FormFile("company_profile")
	if bsErr != nil {
		errs = append(errs, "Balance sheet file is required")
	} else if !extensionAllowed(balanceSheet.Filename) {
		errs = append(errs, "Balance sheet: invalid file type")
	}
	if cpErr != nil {
		errs = append(errs, "Company profile file is required")
	} else if !extensionAllowed(profile.Filename) {
		errs = append(errs, "Company profile: invalid file type")
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "errors": errs})
	}

	bsText, err := readFormFile(balanceSheet)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	cpText, err := readFormFile(profile)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.presentations[id] = &presentation{balanceSheet: bsText, companyProfile: cpText}
	s.mu.Unlock()

	return c.JSON(fiber.Map{
		"success":    true,
		"session_id": id,
		"message":    "Files uploaded successfully",
	})
}

func (s *Server) lookupPresentation(id string) (*presentation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.presentations[id]
	return p, ok
}

func (s *Server) pptRecommendations(c *fiber.Ctx) error {
	p, ok := s.lookupPresentation(c.Params("id"))
	if !ok {
		return errorResponse(c, fiber.StatusNotFound, "Session not found")
	}

	recommended := []string{"title", "executive", "financials", "ratios", "conclusion"}
	if p.companyProfile != "" {
		recommended = append(recommended[:len(recommended)-1], "company", "leadership", "conclusion")
	}
	return c.JSON(fiber.Map{"success": true, "recommended_slides": recommended})
}

func (s *Server) pptGenerate(c *fiber.Ctx) error {
	var req backend.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Template == "" {
		req.Template = "professional"
	}
	if req.Theme == "" {
		req.Theme = "blue"
	}
	if len(req.Slides) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "No slides selected")
	}
	if err := backend.Validate(req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	p, ok := s.lookupPresentation(req.SessionID)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid session")
	}

	slides := make([]slide.Spec, 0, len(req.Slides))
	for i, kind := range req.Slides {
		slides = append(slides, cannedSlide(slide.Kind(kind), 95-float64(i%3)*2.5))
	}
	meta := slide.DeriveMetadata(slides, &slide.Metadata{
		Template:            req.Template,
		Theme:               req.Theme,
		GenerationMethod:    "agentic",
		UsedEnhancedContext: p.companyProfile != "",
	})

	result := &generated{
		slides:   slides,
		metadata: meta,
		filename: fmt.Sprintf("presentation_%s.pptx", uuid.NewString()[:8]),
	}
	s.mu.Lock()
	p.result = result
	s.mu.Unlock()

	return c.JSON(fiber.Map{
		"success":     true,
		"slides":      slides,
		"metadata":    meta,
		"filename":    result.filename,
		"slide_count": len(slides),
	})
}

func (s *Server) generatedFor(c *fiber.Ctx) (*generated, error) {
	p, ok := s.lookupPresentation(c.Params("id"))
	if !ok {
		return nil, errorResponse(c, fiber.StatusNotFound, "Session not found")
	}
	s.mu.Lock()
	result := p.result
	s.mu.Unlock()
	if result == nil {
		return nil, errorResponse(c, fiber.StatusBadRequest, "Presentation not generated yet")
	}
	return result, nil
}

func (s *Server) pptPreview(c *fiber.Ctx) error {
	result, err := s.generatedFor(c)
	if result == nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "slides": result.slides})
}

func (s *Server) pptDownload(c *fiber.Ctx) error {
	result, err := s.generatedFor(c)
	if result == nil {
		return err
	}

	c.Attachment(result.filename)
	c.Set(fiber.HeaderContentType, backend.PresentationMIME)
	return c.Send(renderArtifact(result))
}
