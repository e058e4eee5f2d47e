// Package auth provides authentication and authorisation for Maison Core.
//
// It implements a 2-tier role model (user, admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Short-lived JWT access tokens validated by signature only
//   - A first-boot seeded admin account with a random logged password
//
// Users drive modules and the Guirlande; admins additionally manage
// accounts, register modules and change the Guirlande access settings.
package auth
