// Package apiclient is the HTTP implementation of the hospauth.API
// collaborator contract: the authentication, refresh, and user-profile
// endpoints of the hospital management service.
//
// The client maps transport failures to hospauth.ErrNetwork and an
// unauthorized answer from the refresh endpoint to
// hospauth.ErrRefreshUnauthorized. It never retries; retry policy belongs
// to the transport or the caller.
package apiclient
