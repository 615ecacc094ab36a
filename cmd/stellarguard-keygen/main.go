// Command stellarguard-keygen mints a secp256k1 keypair and prints the hex
// private key alongside its bech32 contract address. Operators use the
// address as the subject of gateway bearer tokens and in genesis config.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"

	"stellarguard/crypto"
)

func main() {
	var fromHex string
	flag.StringVar(&fromHex, "from", "", "derive the address of an existing hex private key instead of generating one")
	flag.Parse()

	var key *crypto.PrivateKey
	var err error
	if fromHex != "" {
		raw, decodeErr := hex.DecodeString(fromHex)
		if decodeErr != nil {
			log.Fatalf("decode private key: %v", decodeErr)
		}
		key, err = crypto.PrivateKeyFromBytes(raw)
	} else {
		key, err = crypto.GeneratePrivateKey()
	}
	if err != nil {
		log.Fatalf("key: %v", err)
	}

	fmt.Printf("private_key: %s\n", hex.EncodeToString(key.Bytes()))
	fmt.Printf("address:     %s\n", key.PubKey().Address())
}
