// package tonie implements the Tonie Cloud client: an authenticated session
// with transparent OAuth2 token refresh and transient-fault retries, a typed
// API client over it, and the error taxonomy shared by every layer above.
package tonie
