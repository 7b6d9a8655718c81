// Package common contains shared constants and sentinel errors used across
// selfkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// BasicProfileSchema is the record schema edited by the profile editor.
const BasicProfileSchema = "basicProfile"

// NameField is the single profile field the editor reads and writes.
const NameField = "name"
