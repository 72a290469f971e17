package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mahdiidarabi/nonce-reuse/pkg/noncereuse"
)

func main() {
	var (
		signaturesFile = flag.String("signatures", "", "Path to the candidate pair file (JSON or CSV, exactly two signatures)")
		format         = flag.String("format", "json", "Signature file format (json or csv)")
		publicKey      = flag.String("public-key", "", "Verifying key in hex (compressed or uncompressed)")
		outFile        = flag.String("out", "", "Write the recovered private key to this file")
		derOut         = flag.Bool("der", false, "Write the key as DER instead of PEM")
		verbose        = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	if *signaturesFile == "" || *publicKey == "" {
		fmt.Fprintln(os.Stderr, "Error: --signatures and --public-key are required")
		flag.Usage()
		os.Exit(1)
	}

	var parser noncereuse.SignatureParser
	switch *format {
	case "json":
		parser = &noncereuse.JSONParser{}
	case "csv":
		parser = &noncereuse.CSVParser{}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *format)
		os.Exit(1)
	}

	client := noncereuse.NewClient().
		WithParser(parser).
		WithLogger(log)

	result, err := client.RecoverPair(context.Background(), *signaturesFile, *publicKey)
	if err != nil {
		log.Fatal().Err(err).Msg("recovery failed")
	}

	fmt.Printf("\n[+] Recovered private key from reused nonce:\n")
	fmt.Printf("    Private key: %s\n", result.PrivateKey.Text(16))
	fmt.Printf("    Nonce:       %s\n", result.Nonce.Text(16))
	if result.Verified {
		fmt.Println("    ✓ Verified against public key")
	}

	if *outFile != "" {
		keyFormat := noncereuse.FormatPEM
		if *derOut {
			keyFormat = noncereuse.FormatDER
		}
		data, err := result.Key.Export(keyFormat)
		if err != nil {
			log.Fatal().Err(err).Msg("key export failed")
		}
		if err := os.WriteFile(*outFile, data, 0o600); err != nil {
			log.Fatal().Err(err).Msg("writing key file failed")
		}
		fmt.Printf("    Key written to %s (%s)\n", *outFile, keyFormat)
	}
}
