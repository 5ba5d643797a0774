package model

import "errors"

// ErrCommentNotFound indicates that no stored review comment matches the lookup.
var ErrCommentNotFound = errors.New("review comment not found")
