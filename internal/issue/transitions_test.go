package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAllowsPendingToActive(t *testing.T) {
	assert.NoError(t, Validate(StatusPending, StatusActive))
}

func TestValidateAllowsActiveToCompleted(t *testing.T) {
	assert.NoError(t, Validate(StatusActive, StatusCompleted))
}

func TestValidateRejectsPendingToCompleted(t *testing.T) {
	assert.Error(t, Validate(StatusPending, StatusCompleted), "must go through active first")
}

func TestValidateRejectsCompletedToAnything(t *testing.T) {
	assert.Error(t, Validate(StatusCompleted, StatusActive))
	assert.Error(t, Validate(StatusCompleted, StatusPending))
}

func TestValidateRejectsSameState(t *testing.T) {
	assert.Error(t, Validate(StatusActive, StatusActive))
}
