// Package webhook serves the chat platform's interactions endpoint.
//
// Every request is authenticated before its body is interpreted. The platform
// signs timestamp||body with Ed25519; the server rejects the request unless
// the signature verifies and the timestamp is inside the skew window.
//
// # Request Flow
//
//  1. Non-POST requests to the endpoint are rejected with 405
//  2. Body read with a size limit (413 if too large)
//  3. X-Signature-Ed25519 and X-Signature-Timestamp extracted (401 if absent)
//  4. Signature and timestamp verified (401 on any failure)
//  5. Body decoded into an interaction (400 if not JSON)
//  6. Interaction dispatched; the reply is written as JSON with 200
//
// Rejections are bare statuses with a short text body. Domain outcomes
// (validation failures, store errors, unknown commands) are always 200 with
// a structured reply whose content explains the problem.
//
// # Configuration
//
//	webhook:
//	  listen: "127.0.0.1:8787"
//	  path: /interactions
//	  public_key: ${DISCORD_PUBLIC_KEY}
//	  max_body_size: 1MB
//
// # Example Usage
//
//	verifier, err := signature.NewVerifier(cfg.Webhook.PublicKey)
//	if err != nil {
//		return err
//	}
//	server := webhook.New(webhookCfg, verifier, dispatch.New(storeClient, logger), logger)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
