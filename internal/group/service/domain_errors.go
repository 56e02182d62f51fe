package service

import commonerrors "github.com/kyodo/backend/internal/common/errors"

var (
	ErrGroupCreateFailed = commonerrors.NewInternalError("GROUP_CREATE_FAILED")
	ErrAddMemberFailed   = commonerrors.NewInternalError("ADD_MEMBER_FAILED")
	ErrListGroupsFailed  = commonerrors.NewInternalError("LIST_GROUPS_FAILED")
)
