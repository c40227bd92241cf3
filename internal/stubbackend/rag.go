package stubbackend

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/Dhruv3sood/finq/pkg/backend"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var allowedExtensions = map[string]bool{
	"txt": true, "csv": true, "text": true, "xlsx": true, "pdf": true,
}

type chatSession struct {
	balanceSheet   string
	companyProfile string
	questions      int
}

func readFormFile(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func extensionAllowed(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return allowedExtensions[ext]
}

func (s *Server) ragUpload(c *fiber.Ctx) error {
	balanceSheet, err := c.FormFile("balance_sheet")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Balance sheet file is required")
	}
	if !extensionAllowed(balanceSheet.Filename) {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid file type. Allowed: txt, csv, text, xlsx, pdf")
	}

	bsText, err := readFormFile(balanceSheet)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}

	session := &chatSession{balanceSheet: bsText}
	sections := 1
	if profile, err := c.FormFile("company_profile"); err == nil {
		text, err := readFormFile(profile)
		if err != nil {
			return errorResponse(c, fiber.StatusInternalServerError, err.Error())
		}
		session.companyProfile = text
		sections++
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.chatSessions[id] = session
	s.mu.Unlock()

	chunks := len(strings.Split(strings.TrimSpace(bsText+"\n"+session.companyProfile), "\n"))
	s.logger.Info("STUB", "RAG upload accepted", map[string]interface{}{"session_id": id, "chunks": chunks})

	return c.JSON(fiber.Map{
		"success":        true,
		"session_id":     id,
		"chunks_count":   chunks,
		"sections_count": sections,
		"summaries": fiber.Map{
			"balance_sheet": "Balance sheet indexed",
		},
	})
}

func (s *Server) ragChat(c *fiber.Ctx) error {
	var req backend.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := backend.Validate(req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	s.mu.Lock()
	session, ok := s.chatSessions[req.SessionID]
	if ok {
		session.questions++
	}
	s.mu.Unlock()
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid session")
	}

	citations := []string{"Balance Sheet"}
	if session.companyProfile != "" {
		citations = append(citations, "Company Profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"answer": fmt.Sprintf("Here is what the documents say about %q (considering %d earlier messages).",
			req.Question, len(req.ChatHistory)),
		"citations": citations,
		"grounding_check": fiber.Map{
			"is_grounded": true,
			"issues":      []string{},
		},
		"route_info": fiber.Map{
			"type":          "factual",
			"reasoning":     "question references specific figures",
			"needs_rewrite": false,
		},
		"pipeline":   "rag",
		"query_used": req.Question,
	})
}
