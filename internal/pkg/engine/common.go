package engine

import (
	"reflect"

	"github.com/zpiroux/orderlake/entity"
)

func isNil(v any) bool {
	return v == nil || (reflect.ValueOf(v).Kind() == reflect.Ptr && reflect.ValueOf(v).IsNil())
}

// stageError maps a pipeline stage to the sentinel error wrapped by its failures.
func stageError(stage entity.Stage) error {
	switch stage {
	case entity.StageFetch:
		return entity.ErrInput
	case entity.StageTransform:
		return entity.ErrTransform
	case entity.StageSerialize:
		return entity.ErrSerialize
	case entity.StagePublish:
		return entity.ErrStorage
	case entity.StageNotify:
		return entity.ErrNotify
	}
	return entity.ErrInput
}
