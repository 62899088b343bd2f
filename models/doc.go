// Package models holds the example entities and request DTOs served by
// cmd/recordstore. Schema registrations and filter match modes are
// generated from openapi.yaml.
package models

//go:generate go run ../cmd/schemagen --input openapi.yaml --output zz_generated.go --package models
