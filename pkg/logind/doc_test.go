package logind_test

import (
	"io"
	"log"
	"os"

	"github.com/MatthiasKunnen/screenlock/pkg/logind"
)

func Example() {
	client, err := logind.Connect(os.Getenv("XDG_SESSION_ID"))
	if err != nil {
		log.Fatalf("Failed to connect to logind: %v", err)
	}
	defer client.Close()

	lockRequest := make(chan struct{}, 1)
	if err := client.SubscribeLock(lockRequest); err != nil {
		log.Fatalf("Failed to subscribe to Lock: %v", err)
	}

	prepareForSleep := make(chan bool, 1)
	if err := client.SubscribePrepareForSleep(prepareForSleep); err != nil {
		log.Fatalf("Failed to subscribe to PrepareForSleep: %v", err)
	}

	var sleepLock io.Closer
	inhibitSleep := func() {
		var err error
		sleepLock, err = client.InhibitSleep("Name of program", "Lock the screen before sleeping")
		if err != nil {
			log.Printf("Unable to delay sleep: %v", err)
		}
	}
	inhibitSleep()

	lockScreen := func() {
		// Lock the screen here, then tell logind.
		if err := client.SetLockedHint(true); err != nil {
			log.Printf("Failed to set locked hint: %v", err)
		}
	}

	for {
		select {
		case <-lockRequest:
			lockScreen()
		case sleeping := <-prepareForSleep:
			if !sleeping {
				inhibitSleep()
				continue
			}
			lockScreen()
			if sleepLock != nil {
				sleepLock.Close()
				sleepLock = nil
			}
		}
	}
}
