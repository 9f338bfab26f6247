package reagent_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reagent"
)

func TestTaskValidate(t *testing.T) {
	t.Run("valid task", func(t *testing.T) {
		task := reagent.Task{Description: "do something"}
		gt.NoError(t, task.Validate())
	})

	t.Run("missing description", func(t *testing.T) {
		task := reagent.Task{}
		err := task.Validate()
		gt.Error(t, err)
		gt.True(t, errors.Is(err, reagent.ErrInvalidTask))
	})

	t.Run("threshold above one", func(t *testing.T) {
		task := reagent.Task{
			Description: "do something",
			Constraints: reagent.Constraints{ConfidenceThreshold: 1.5},
		}
		err := task.Validate()
		gt.Error(t, err)
		gt.True(t, errors.Is(err, reagent.ErrInvalidTask))
	})
}
