package service

import (
	"context"

	"github.com/Dhruv3sood/finq/pkg/chat"
	"github.com/Dhruv3sood/finq/pkg/pipeline"
	"github.com/Dhruv3sood/finq/pkg/progress"
	"github.com/Dhruv3sood/finq/pkg/store"
	"github.com/Dhruv3sood/finq/pkg/upload"
)

type IChatService interface {
	Upload(ctx context.Context, balanceSheet, companyProfile *upload.File) (upload.Result, error)
	Ask(ctx context.Context, question string) (chat.Turn, error)
	Transcript() ([]chat.Turn, error)
	Session() store.Session
	Progress() (progress.Update, bool)
	Reset()
}

type chatService struct {
	flow    *pipeline.Flow[[]chat.Turn]
	session *chat.Session
}

func NewChatService(flow *pipeline.Flow[[]chat.Turn], session *chat.Session) IChatService {
	return &chatService{
		flow:    flow,
		session: session,
	}
}

func (s *chatService) Upload(ctx context.Context, balanceSheet, companyProfile *upload.File) (upload.Result, error) {
	return s.flow.Upload(ctx, upload.ChatSlots(balanceSheet, companyProfile))
}

func (s *chatService) Ask(ctx context.Context, question string) (chat.Turn, error) {
	return s.session.Send(ctx, question)
}

func (s *chatService) Transcript() ([]chat.Turn, error) {
	turns, err := s.flow.View()
	if err != nil {
		return nil, chat.ErrSessionNotReady
	}
	return turns, nil
}

func (s *chatService) Session() store.Session {
	return s.flow.Session()
}

func (s *chatService) Progress() (progress.Update, bool) {
	return s.flow.Uploader().Progress()
}

func (s *chatService) Reset() {
	s.flow.Reset()
}
