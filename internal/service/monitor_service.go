package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hirelens/hirelens-backend/internal/repository"
)

// MonitorService orchestrates the live assessment monitor.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo}
}

// ProgressSnapshot holds the answered count and integrity count for every
// in-progress candidate.
type ProgressSnapshot struct {
	AnsweredCounts  map[int]int64 `json:"answered_counts"`
	IntegrityCounts map[int]int64 `json:"integrity_counts"`
	InProgressIDs   []int         `json:"in_progress_candidate_ids"`
	FlaggedIDs      []int         `json:"flagged_candidate_ids"`
	TotalIncidents  int64         `json:"total_incidents"`
}

// GetProgress returns answered counts and integrity counts for an assessment.
// The independent fetches run in parallel.
func (s *MonitorService) GetProgress(ctx context.Context, assessmentID uuid.UUID) (*ProgressSnapshot, error) {
	snapshot := &ProgressSnapshot{
		AnsweredCounts:  make(map[int]int64),
		IntegrityCounts: make(map[int]int64),
	}

	var (
		answeredCounts  map[int]int64
		integrityCounts map[int]int64
		inProgressIDs   []int
		flaggedIDs      []int
		answeredErr     error
		integrityErr    error
		inProgressErr   error
		flaggedErr      error
		wg              sync.WaitGroup
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		answeredCounts, answeredErr = s.monitorRepo.GetAnsweredCounts(ctx, assessmentID)
	}()
	go func() {
		defer wg.Done()
		integrityCounts, integrityErr = s.monitorRepo.GetIntegrityCounts(ctx, assessmentID)
	}()
	go func() {
		defer wg.Done()
		inProgressIDs, inProgressErr = s.monitorRepo.GetInProgressCandidateIDs(ctx, assessmentID)
	}()
	go func() {
		defer wg.Done()
		flaggedIDs, flaggedErr = s.monitorRepo.GetFlaggedCandidateIDs(ctx, assessmentID)
	}()
	wg.Wait()

	// Answered counts are the critical signal; the rest is best-effort.
	if answeredErr != nil {
		return nil, answeredErr
	}
	if answeredCounts != nil {
		snapshot.AnsweredCounts = answeredCounts
	}

	if integrityErr == nil && integrityCounts != nil {
		snapshot.IntegrityCounts = integrityCounts
		for _, count := range integrityCounts {
			snapshot.TotalIncidents += count
		}
	}
	if inProgressErr == nil {
		snapshot.InProgressIDs = inProgressIDs
	}
	if flaggedErr == nil {
		snapshot.FlaggedIDs = flaggedIDs
	}

	return snapshot, nil
}
