package engine

import (
	"errors"

	"github.com/dukerupert/chorechart/internal/model"
)

var (
	ErrUnknownTask              = errors.New("unknown task")
	ErrUnknownPrivilege         = errors.New("unknown privilege")
	ErrNoSuchAssignee           = errors.New("no such assignee")
	ErrInvalidBehaviorOperation = errors.New("invalid behavior operation")
	ErrOutOfRangeAdjustment     = errors.New("adjustment out of range")
	ErrInvalidDefinition        = model.ErrInvalidDefinition
)
