// Package services talks to the remote emotion-detection API.
//
// # Request Client
//
// [Client] is the single choke point for outbound calls. It builds the URL with query parameters,
// attaches the bearer token held by the session, and classifies each response:
//
//  1. A JSON object body with a numeric "status" field decides success on its own: 200-299 succeeds,
//     401 ends the session, anything else fails with the body "message" or "API error: <status>".
//  2. Otherwise a non-2xx HTTP status fails, 401 again ending the session.
//  3. Otherwise the raw body is returned.
//
// Failures are returned as [*APIError] and never retried.
//
// # Auth and Emotion Services
//
// [AuthService] wraps login, registration, logout, user listing and the session refresh.
// [EmotionService] submits captured frames for detection and refreshes the session afterwards.
//
// # Error Handling
//
// Errors wrap the sentinels in the shared package:
//   - [shared.ErrUnauthorized] : the API rejected the token; the session was torn down
//   - [shared.ErrAPIRequest] : any other HTTP or application-level failure
//   - [shared.ErrUserNotFound] : detection requested with no cached user
//   - [shared.ErrForbidden] : admin-only operation attempted by another role
package services
