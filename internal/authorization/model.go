// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"encoding/json"
	"fmt"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/language/pkg/go/transformer"
)

var models = map[string]string{
	"v0": `model
  schema 1.1

type user

type platform
  relations
    define super_admin: [user]

type account
  relations
    define account_admin: [user]
    define account_user: [user]
`,
}

type AuthorizationModelProvider struct {
	apiVersion string
}

// GetDSL returns the model in the OpenFGA modelling language.
func (a *AuthorizationModelProvider) GetDSL() string {
	return models[a.apiVersion]
}

// GetModel parses the DSL, unknown versions and parse failures panic as
// the models are compiled into the binary.
func (a *AuthorizationModelProvider) GetModel() *fga.AuthorizationModel {
	dsl, ok := models[a.apiVersion]
	if !ok {
		panic(fmt.Sprintf("unknown authorization model version %s", a.apiVersion))
	}

	raw, err := transformer.TransformDSLToJSON(dsl)
	if err != nil {
		panic(fmt.Sprintf("invalid authorization model %s: %v", a.apiVersion, err))
	}

	model := new(fga.AuthorizationModel)
	if err := json.Unmarshal([]byte(raw), model); err != nil {
		panic(fmt.Sprintf("failed to decode authorization model %s: %v", a.apiVersion, err))
	}

	return model
}

func NewAuthorizationModelProvider(apiVersion string) *AuthorizationModelProvider {
	return &AuthorizationModelProvider{apiVersion: apiVersion}
}
