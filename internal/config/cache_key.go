package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateLoginKey returns the cache key for a candidate's login session
func (r *CacheKeyStruct) CandidateLoginKey(candidateID int) string {
	return fmt.Sprintf("login:%d", candidateID)
}

// SessionResponsesKey returns the cache key for a candidate's autosaved responses
func (r *CacheKeyStruct) SessionResponsesKey(assessmentID string, candidateID int) string {
	return fmt.Sprintf("candidate:%d:assessment:%s:responses", candidateID, assessmentID)
}

// AssessmentPayloadKey returns the cache key for an assessment's candidate payload
func (r *CacheKeyStruct) AssessmentPayloadKey(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:payload", assessmentID)
}

// AssessmentMonitorChannel returns the Redis PubSub channel name for a live monitor
func (r *CacheKeyStruct) AssessmentMonitorChannel(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:monitor", assessmentID)
}

var CacheKey = NewCacheKeyStruct()
