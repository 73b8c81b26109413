/*
Package authsdk is the Go client for the authentication service, and the home
of the JSON wire types the service itself writes.

# Clients and Sessions

SDKClient covers the unauthenticated endpoints. A successful login returns a
Session carrying the full access token:

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, err := client.Login(ctx, "ada@example.com", "correct horse")
	var challenge *authsdk.MFAChallenge
	if errors.As(err, &challenge) {
		session, err = client.VerifyMFA(ctx, challenge.TempToken, otpCode)
	}
	if err != nil {
		return err
	}

	me, err := session.Me(ctx)

A Session does not refresh itself; when Expired reports true the caller logs
in again.

# MFA Enrollment

	enrollment, err := session.BeginEnrollment(ctx)
	// show enrollment.QRCode or enrollment.ProvisioningURI to the user
	err = session.ConfirmEnrollment(ctx, codeFromAuthenticator)

# Errors

Every non-2xx response is returned as *APIError carrying the HTTP status and
the machine readable code, for example "invalid_code" or
"mfa_already_enabled". Use errors.As to inspect it, or compare against the
predefined values with IsCode.

# Thread Safety

SDKClient and Session are safe for concurrent use.
*/
package authsdk
