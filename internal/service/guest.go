package service

import (
	"context"
	"strings"

	"writingway/internal/agegroup"

	"go.uber.org/zap"
)

// GuestAgeGroup - группа, под которую подстраивается гостевой режим.
const GuestAgeGroup = agegroup.UpperSecondary

const guestNote = "Guest mode uses upper secondary level suggestions. Register to access age-appropriate content."

// GuestHealth - ответ /guest/health.
type GuestHealth struct {
	Status   string `json:"status"`
	AgeGroup string `json:"age_group"`
}

// GuestAgeGroups - справочник групп для гостя.
type GuestAgeGroups struct {
	AgeGroups         []agegroup.Info `json:"age_groups"`
	GuestAgeGroup     string          `json:"guest_age_group"`
	GuestAgeGroupName string          `json:"guest_age_group_name"`
	Note              string          `json:"note"`
	Success           bool            `json:"success"`
}

// DemoProject - пример проекта для гостя.
type DemoProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SampleText  string `json:"sample_text"`
}

// DemoContent - ответ /guest/demo-content.
type DemoContent struct {
	DemoProjects []DemoProject `json:"demo_projects"`
	Tips         []string      `json:"tips"`
}

// GuestService - функции без регистрации. Ничего не сохраняет.
type GuestService interface {
	Health() GuestHealth
	WritingAssistance(ctx context.Context, in WritingAssistanceInput) (*WritingAssistanceResult, error)
	WritingPrompts(projectName, ageGroup string) agegroup.PromptSet
	AgeGroups() GuestAgeGroups
	DemoContent() DemoContent
}

var _ GuestService = (*guestService)(nil)

type guestService struct {
	assistant AssistantService
	logger    *zap.Logger
}

// NewGuestService creates a new GuestService on top of the assistant.
func NewGuestService(assistant AssistantService, logger *zap.Logger) GuestService {
	return &guestService{assistant: assistant, logger: logger.Named("GuestService")}
}

func (s *guestService) Health() GuestHealth {
	return GuestHealth{Status: "Guest mode available", AgeGroup: string(GuestAgeGroup)}
}

func guestGroup(requested string) string {
	if strings.TrimSpace(requested) == "" {
		return string(GuestAgeGroup)
	}
	return requested
}

func (s *guestService) WritingAssistance(ctx context.Context, in WritingAssistanceInput) (*WritingAssistanceResult, error) {
	in.AgeGroup = guestGroup(in.AgeGroup)
	return s.assistant.WritingAssistance(ctx, nil, in)
}

func (s *guestService) WritingPrompts(projectName, ageGroup string) agegroup.PromptSet {
	return agegroup.WritingPrompts(projectName, guestGroup(ageGroup))
}

func (s *guestService) AgeGroups() GuestAgeGroups {
	return GuestAgeGroups{
		AgeGroups:         agegroup.All(),
		GuestAgeGroup:     string(GuestAgeGroup),
		GuestAgeGroupName: agegroup.Get(GuestAgeGroup).Name,
		Note:              guestNote,
		Success:           true,
	}
}

func (s *guestService) DemoContent() DemoContent {
	return DemoContent{
		DemoProjects: []DemoProject{
			{
				Name:        "Adventure Story",
				Description: "Write an exciting adventure tale",
				SampleText:  "The old map crackled in my hands as I studied the mysterious symbols...",
			},
			{
				Name:        "Science Fiction",
				Description: "Create a futuristic story",
				SampleText:  "The year was 2150, and humanity had just discovered...",
			},
			{
				Name:        "Mystery Novel",
				Description: "Craft a thrilling mystery",
				SampleText:  "Detective Sarah noticed something odd about the crime scene...",
			},
			{
				Name:        "Fantasy Epic",
				Description: "Build a magical world",
				SampleText:  "The ancient dragon's eyes glowed as it spoke the forgotten words...",
			},
		},
		Tips: []string{
			"Try different writing assistance types: improve, continue, analyze",
			"Use writing prompts to get started when you're stuck",
			"Guest mode provides upper secondary level suggestions",
			"Register for age-appropriate content and to save your work",
		},
	}
}
