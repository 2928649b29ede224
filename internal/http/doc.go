// Package http exposes the CivisOS services as a JSON API on a chi router.
//
// Every route under /api requires HTTP Basic credentials made of a staff name
// and PIN; GET /healthz is open. The routes are:
//   - GET /api/me, GET/POST /api/staff, PUT /api/staff/{name}/disabled: the
//     authenticated principal and staff account management.
//   - GET /api/parking/spaces, GET /api/parking/stats,
//     POST /api/parking/spaces/{id}/assign, POST /api/parking/spaces/{id}/release,
//     PUT /api/parking/spaces/{id}/status.
//   - GET /api/facility/stats, GET/POST /api/facility/bookings,
//     PUT /api/facility/bookings/{id}/payment,
//     POST /api/facility/bookings/{id}/{approve|reject|cancel|complete},
//     DELETE /api/facility/bookings/{id}.
//   - GET/POST /api/deposits, GET/PUT /api/deposits/{id},
//     POST /api/deposits/{id}/{add|subtract|retrieve|revert}.
//   - GET /api/devices, POST /api/devices/{id}/data, GET /api/devices/events,
//     POST /api/devices/events/{id}/process.
//   - GET /api/fees/units, POST /api/fees/units/{id}/calculate,
//     PUT /api/fees/units/{id}/payment, PUT /api/fees/configs,
//     POST /api/fees/recalculate.
//   - POST /api/imports/{kind}/validate.
//
// Service errors map to status codes in responder.go: field validation is 422
// with an errors object, refused state changes are 409 carrying the refusal
// text, unknown resources are 404, missing roles are 403 and bad credentials
// are 401.
//
// Request and response DTOs live alongside their handlers.
package http
