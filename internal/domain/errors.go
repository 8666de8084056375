package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrMissingCountry rejects a start request without a country.
	ErrMissingCountry = errors.New("country is required")
	// ErrMissingTopic rejects a start request without a topic.
	ErrMissingTopic = errors.New("topic is required")
	// ErrMissingOracleKey rejects a start request when the text oracle credential is absent.
	ErrMissingOracleKey = errors.New("text oracle API key is required")
	// ErrMissingMapKey rejects a start request when the map rendering credential is absent.
	ErrMissingMapKey = errors.New("map API key is required")
	// ErrGenerationInFlight indicates a start request arrived while one is outstanding.
	ErrGenerationInFlight = errors.New("quiz generation already in progress")
	// ErrQuizInProgress indicates a start request on a session that already holds a quiz.
	ErrQuizInProgress = errors.New("quiz already in progress, restart first")
	// ErrEmptyGeneration indicates the oracle produced zero valid location records.
	ErrEmptyGeneration = errors.New("generation returned no valid locations")
	// ErrQuizNotActive indicates an in-quiz action outside the active state.
	ErrQuizNotActive = errors.New("quiz is not active")
	// ErrItemNotFound indicates an unknown item ID.
	ErrItemNotFound = errors.New("quiz item not found")
	// ErrItemAlreadyAnswered indicates a focus attempt on a graded item.
	ErrItemAlreadyAnswered = errors.New("quiz item already answered")
	// ErrNoFocusedItem indicates an answer arrived with no item focused.
	ErrNoFocusedItem = errors.New("no quiz item is focused")
	// ErrGradingInFlight indicates a second answer arrived while one is being graded.
	ErrGradingInFlight = errors.New("answer already being graded")
	// ErrNoTopics indicates the oracle returned no usable topic suggestions.
	ErrNoTopics = errors.New("no topics suggested")
)
