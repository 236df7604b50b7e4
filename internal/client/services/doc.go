// Package services contains the domain services of the ragdesk client:
// authentication, file management, retrieval-augmented queries and agent
// runs. Every call goes through the api request facade; authentication
// calls are anonymous so that a 401 there means bad input, not an expired
// session.
package services
