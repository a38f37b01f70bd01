// Copyright (c) 2026 Khaled Abbas
//
// This source code is licensed under the Business Source License 1.1.
//
// Change Date: 4 years after the first public release of this version.
// Change License: MIT
//
// On the Change Date, this version of the code automatically converts
// to the MIT License. Prior to that date, use is subject to the
// Additional Use Grant. See the LICENSE file for details.

package cloud

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Token holds the session JWT handed back by the login endpoint along
// with the username claim the vendor embeds in it. The username is
// needed later as the user-id header on camera requests.
type Token struct {
	Username string
	jwt      string
}

// ParseToken extracts the username claim from an access token. The
// client holds no key for the vendor's signature, so the claims are
// read without verification; the token is only replayed back to the
// same service that issued it.
func ParseToken(raw string) (Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Token{}, fmt.Errorf("failed to parse access token: %w", err)
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return Token{}, errors.New("access token has no username claim")
	}

	return Token{Username: username, jwt: raw}, nil
}
