// Package server serves the task board to a browser on the local machine.
//
// The page is rendered from the same display model the terminal board paints,
// and every change made through the API goes through the shared controller,
// so both surfaces always show the same board.
//
// # Endpoints
//
//   - GET / - The board page, with the current snapshot inlined
//   - GET /static/* - Embedded script and stylesheet
//   - GET /api/board - Display snapshot plus whether it is persisted
//   - GET /api/events - Server-sent "board" events, one per change
//   - POST /api/tasks - Add a task
//   - PUT /api/tasks/{id} - Edit a task's text
//   - DELETE /api/tasks/{id} - Delete a task
//   - POST /api/tasks/{id}/move - Move a task to another column
//   - POST /api/clear - Delete every task, if the body confirms it
//
// # Rate limiting
//
// Mutating endpoints are limited per client IP with a sliding window.
// Clients that keep sending after being limited are blocked with
// exponential backoff. Rejections carry a Retry-After header.
package server
