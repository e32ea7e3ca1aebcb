package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hirelens/hirelens-backend/internal/config"
	"github.com/hirelens/hirelens-backend/internal/database"
	"github.com/hirelens/hirelens-backend/internal/logger"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/repository"
	"github.com/hirelens/hirelens-backend/internal/service"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	candidateRepo := repository.NewCandidateRepository(pool)
	recruiterRepo := repository.NewRecruiterRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	assessmentService := service.NewAssessmentService(assessmentRepo, questionRepo, rdb, log)

	fmt.Println("=== Seeding Demo Data ===")

	// Recruiter with the full permission set.
	hash, err := bcrypt.GenerateFromPassword([]byte("hirelens-demo"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}
	permissions := make([]string, 0, len(model.AllPermissions))
	for _, p := range model.AllPermissions {
		permissions = append(permissions, string(p))
	}
	recruiter := &model.Recruiter{
		Email:        "recruiter@hirelens.dev",
		Name:         "Demo Recruiter",
		PasswordHash: string(hash),
		Permissions:  permissions,
	}
	if err := recruiterRepo.Create(ctx, recruiter); err != nil {
		// Likely a re-run; reuse the existing account so the assessment FK holds.
		existing, lookupErr := recruiterRepo.GetByEmail(ctx, recruiter.Email)
		if lookupErr != nil {
			log.Fatal().Err(err).Msg("Failed to create recruiter")
		}
		recruiter = existing
		fmt.Printf("Found existing recruiter %s with ID: %d\n", recruiter.Email, recruiter.ID)
	} else {
		fmt.Printf("Created recruiter %s with ID: %d\n", recruiter.Email, recruiter.ID)
	}

	// Candidates.
	names := []string{
		"Ava Thompson", "Liam Carter", "Noah Kim", "Mia Alvarez", "Ethan Brooks",
		"Zoe Nakamura", "Lucas Meyer", "Ella Okafor", "Owen Fischer", "Ruby Tran",
	}
	successCount := 0
	for i, name := range names {
		candidate := &model.Candidate{
			Email:        fmt.Sprintf("candidate%d@hirelens.dev", i+1),
			Name:         name,
			PasswordHash: string(hash),
		}
		if err := candidateRepo.Create(ctx, candidate); err != nil {
			fmt.Printf("Error creating candidate %s: %v\n", candidate.Email, err)
		} else {
			successCount++
		}
	}
	fmt.Printf("Created %d/%d candidates\n", successCount, len(names))

	// One published assessment covering every question type.
	assessment := &model.Assessment{
		Title:            "Backend Engineer Screen",
		Description:      "A short mixed screen: fundamentals, a coding task and a video intro.",
		AuthorID:         recruiter.ID,
		DurationMinutes:  45,
		PassingThreshold: 70,
		MaxTabSwitches:   3,
		IntegrityPolicy:  model.IntegrityReview,
	}
	if err := assessmentService.Create(ctx, assessment); err != nil {
		log.Fatal().Err(err).Msg("Failed to create assessment")
	}
	fmt.Printf("Created assessment %s\n", assessment.ID)

	questions := []model.Question{
		{
			Type:          model.QuestionTypeMcq,
			Text:          "Which HTTP status code signals that a resource was created?",
			Difficulty:    "easy",
			Points:        10,
			Options:       []string{"200", "201", "204", "302"},
			CorrectAnswer: "201",
		},
		{
			Type:          model.QuestionTypeMcq,
			Text:          "Which SQL clause removes duplicate rows from a result set?",
			Difficulty:    "easy",
			Points:        10,
			Options:       []string{"GROUP BY", "DISTINCT", "HAVING", "UNIQUE"},
			CorrectAnswer: "DISTINCT",
		},
		{
			Type:            model.QuestionTypeCoding,
			Text:            "Implement a function that returns the first non-repeating character of a string, or -1 if none exists.",
			Difficulty:      "medium",
			Points:          30,
			StarterCode:     "func firstUnique(s string) rune {\n\t// your code here\n}",
			TestCases:       []string{`firstUnique("aabcc") == 'b'`, `firstUnique("aabb") == -1`},
			LanguageOptions: []string{"go", "python", "javascript"},
		},
		{
			Type:       model.QuestionTypeVideo,
			Text:       "Record a one-minute introduction: your background and the project you are proudest of.",
			Difficulty: "easy",
			Points:     20,
		},
		{
			Type:       model.QuestionTypeOpenEnded,
			Text:       "Describe how you would design rate limiting for a public API.",
			Difficulty: "medium",
			Points:     30,
		},
	}
	if err := assessmentService.ReplaceQuestions(ctx, assessment.ID, recruiter.ID, questions); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed questions")
	}
	fmt.Printf("Seeded %d questions\n", len(questions))

	if err := assessmentService.Publish(ctx, assessment.ID, recruiter.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to publish assessment")
	}
	fmt.Println("Published assessment")

	fmt.Println("\nSeed completed!")
	fmt.Println("Recruiter login:  recruiter@hirelens.dev / hirelens-demo")
	fmt.Println("Candidate logins: candidate1@hirelens.dev .. candidate10@hirelens.dev / hirelens-demo")
}
