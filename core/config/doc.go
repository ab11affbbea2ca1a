// Package config loads bugsync configuration from the environment and an
// optional .env file, using Viper.
//
// # Configuration Structure
//
//   - Remote: tracker URL and credentials (REMOTE_URL, REMOTE_API_KEY, ...)
//   - Log: level and format
//   - Server: port and account of the fake tracker
//   - Database: driver and connection of the fake tracker's store
//   - Storage: S3/MinIO endpoint and bucket of the attachment mirror
//
// Defaults come from the `default` struct tags of each section.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	client, err := transport.Connect(ctx, cfg.Remote)
package config
