// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"

	apperrors "gridwatch/internal/errors"
)

// PresentError formats an error for user display with masking. Typed errors
// show their message only; anything else shows the masked error text.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if apperrors.KindOf(err) != apperrors.Internal {
		return fmt.Sprintf("%s: %s", context, apperrors.MessageOf(err))
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}
