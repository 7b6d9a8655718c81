// Package models holds the client-side types shared by the connection
// controller, the profile editor and the identity client.
package models
