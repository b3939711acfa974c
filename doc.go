// Package accounts implements the user account subsystem: credential
// hashing, JWT issuance and validation, and the activation lifecycle.
//
// Account lifecycle:
//   - Users carry an IsActivated flag persisted via Bun. The derived
//     AccountStatus (unregistered, pending, activated) is what the rest
//     of the subsystem reasons about; pending accounts can authenticate
//     nowhere until the activation link is followed.
//   - StateMachine centralizes the transition graph. Registration moves
//     an address from unregistered to pending; a valid activation token
//     moves it to activated. Re-activating an activated account is a
//     no-op, so activation links are safe to follow twice.
//
// Tokens:
//   - Session tokens are HS256 JWTs bound to the user id. They carry no
//     expiry and are not revocable server side.
//   - Activation tokens are short-lived HS256 JWTs bound to the email
//     address. Validation failures of any kind surface as a single
//     invalid-token error so callers learn nothing about the cause.
//
// Notification:
//   - Notifier implementations deliver the activation link best effort.
//     The coordinator never fails a registration because the email could
//     not be sent; see the mailer package for the SMTP dispatcher.
package accounts
