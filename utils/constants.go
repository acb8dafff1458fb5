package utils

import (
	"time"
)

// Platform character limits enforced before the approve transition
const (
	TwitterCharacterLimit  = 280
	LinkedInCharacterLimit = 3000
)

// Pipeline constants
const (
	// MaxInspirationPosts is the maximum number of inspiration posts embedded
	// into a content-generation prompt
	MaxInspirationPosts = 5

	// DefaultRelevanceThreshold filters inspiration posts before generation
	DefaultRelevanceThreshold = 0.5

	// DefaultDiscoveryLimit bounds a single platform search
	DefaultDiscoveryLimit = 50

	// ContactBaseScore is the base score of a converted contact
	ContactBaseScore = 20

	// HighFollowerThreshold grants a conversion bonus
	HighFollowerThreshold = 1000

	// SearchCacheTTL is how long platform search results stay cached
	SearchCacheTTL = 15 * time.Minute

	// AnalysisCacheTTL is how long a post's sentiment analysis stays current
	AnalysisCacheTTL = 24 * time.Hour
)

// Oracle call defaults
const (
	OracleMaxTokensAnalysis   = 400
	OracleMaxTokensGeneration = 800
	OracleTemperatureAnalysis = 0.2
	OracleTemperatureCreative = 0.8
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Request-scoped context keys for observability
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
