// Package config provides configuration structures and utilities for feedtrack.
// It defines where the database lives, how uploads are checked, and how the
// classifier and notification backends are reached.
package config
