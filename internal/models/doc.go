// Package models defines the domain types shared by the emosense client.
//
// The package contains two categories of types:
//
// 1. Session state, persisted in the local key-value store:
//   - [Profile] : the signed-in user as returned by the remote API
//   - [EmotionRecord] : one detected emotion with confidence and time
//
// 2. Request payloads validated before they leave the process:
//   - [Credentials] : login email and password
//   - [Registration] : a new user created by an admin
//
// Glyphs for emotion labels are resolved with [Glyph].
package models
