// Package chat implements the support chat engine: the transcript of turns,
// numbered-menu extraction from bot replies, the transport that exchanges one
// message with the conversational backend, and the controller that runs the
// turn-taking state machine on top of them.
package chat
