package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dmitrijs2005/selfkeeper/internal/client/connection"
	"github.com/dmitrijs2005/selfkeeper/internal/client/profile"
	"github.com/dmitrijs2005/selfkeeper/internal/client/wallet"
	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/dmitrijs2005/selfkeeper/internal/filex"
)

var (
	errWalletWhileConnected = errors.New("disconnect before changing the wallet")
	errPassphraseMismatch   = errors.New("passphrases do not match")
	errEmptyPassphrase      = errors.New("passphrase must not be empty")
	errNoChoice             = errors.New("no wallet chosen")
)

// Connect runs the wallet handshake and opens the profile editor.
func (a *App) Connect(ctx context.Context) error {
	printlnFn("Connecting...")
	if err := a.ctrl.Connect(ctx); err != nil {
		return err
	}

	editor, err := profile.NewEditor(a.ctrl, a.logger)
	if err != nil {
		return err
	}
	a.setEditor(editor)

	id, err := editor.Identity()
	if err != nil {
		return err
	}
	printlnFn("Connected with DID:", id.ID)
	return nil
}

func (a *App) Disconnect(ctx context.Context) error {
	if err := a.ctrl.Disconnect(ctx); err != nil {
		return err
	}
	a.setEditor(nil)
	printlnFn("Disconnected")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	s := a.ctrl.Session()
	printlnFn("Status:", s.Status.String())
	if s.Connected() {
		printlnFn("DID:", s.Identity.ID)
	}
	if m := a.currentMode(); m != ModeUnknown {
		printlnFn("Node:", string(m))
	}
	return nil
}

// Show prints the profile record of the connected identity.
func (a *App) Show(ctx context.Context) error {
	editor, err := a.currentEditor()
	if err != nil {
		return err
	}

	rec, err := editor.Content(ctx)
	if err != nil {
		return err
	}
	if !rec.Exists() {
		printlnFn("No profile yet")
		return nil
	}

	keys := make([]string, 0, len(rec.Content))
	for k := range rec.Content {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		printlnFn(fmt.Sprintf("%s: %v", k, rec.Content[k]))
	}
	return nil
}

// SetName replaces the name draft. Nothing is sent until Update.
func (a *App) SetName(ctx context.Context, value string) error {
	editor, err := a.currentEditor()
	if err != nil {
		return err
	}
	editor.SetDraft(value)
	printlnFn("Draft:", strconv.Quote(value))
	return nil
}

func (a *App) ShowDraft(ctx context.Context) error {
	editor, err := a.currentEditor()
	if err != nil {
		return err
	}
	printlnFn("Draft:", strconv.Quote(editor.Draft()))
	return nil
}

// Update merges the drafted name into the profile record.
func (a *App) Update(ctx context.Context) error {
	editor, err := a.currentEditor()
	if err != nil {
		return err
	}

	if err := editor.UpdateName(ctx, editor.Draft()); err != nil {
		return err
	}

	rec, err := editor.Content(ctx)
	if err != nil {
		return err
	}
	name, _ := rec.Name()
	printlnFn("Profile updated, name:", strconv.Quote(name))
	return nil
}

// WalletInit creates a new local keystore wallet and prints its recovery phrase.
func (a *App) WalletInit(ctx context.Context) error {
	if err := a.checkWalletChange(); err != nil {
		return err
	}

	pass, err := a.newPassphrase()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	mnemonic, addr, err := wallet.CreateKeystore(a.config.KeystorePath, pass)
	if err != nil {
		return err
	}

	printlnFn("Wallet created:", addr.Hex())
	printlnFn("Recovery phrase (write it down, it is shown only once):")
	printlnFn(mnemonic)

	return a.reloadWallets(ctx)
}

// WalletImport restores a local keystore wallet from a recovery phrase.
func (a *App) WalletImport(ctx context.Context) error {
	if err := a.checkWalletChange(); err != nil {
		return err
	}

	mnemonic, err := getSimpleText(a.reader, "Recovery phrase", a.out)
	if err != nil {
		return err
	}

	pass, err := a.newPassphrase()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	addr, err := wallet.ImportKeystore(a.config.KeystorePath, mnemonic, pass)
	if err != nil {
		return err
	}
	printlnFn("Wallet imported:", addr.Hex())

	return a.reloadWallets(ctx)
}

func (a *App) checkWalletChange() error {
	if a.ctrl.Session().Status != connection.StatusDisconnected {
		return errWalletWhileConnected
	}
	if filex.Exists(a.config.KeystorePath) {
		return wallet.ErrKeystoreExists
	}
	return nil
}

func (a *App) newPassphrase() ([]byte, error) {
	pass, err := getPassword("New passphrase", a.out)
	if err != nil {
		return nil, err
	}
	if len(pass) == 0 {
		return nil, errEmptyPassphrase
	}

	again, err := getPassword("Repeat passphrase", a.out)
	if err != nil {
		common.WipeByteArray(pass)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if string(pass) != string(again) {
		common.WipeByteArray(pass)
		return nil, errPassphraseMismatch
	}
	return pass, nil
}

// reloadWallets swaps in a controller whose selector offers the keystore.
// Selector options are fixed per controller, so a new one is built.
func (a *App) reloadWallets(ctx context.Context) error {
	old := a.ctrl
	if err := a.buildController(); err != nil {
		return err
	}
	return old.Close(ctx)
}

func (a *App) setEditor(e *profile.Editor) {
	a.mu.Lock()
	old := a.editor
	a.editor = e
	a.mu.Unlock()

	if old != nil && old != e {
		old.Close()
	}
}

func (a *App) currentEditor() (*profile.Editor, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.editor == nil {
		return nil, profile.ErrNotConnected
	}
	return a.editor, nil
}

// askPassphrase unlocks the local keystore during wallet selection.
func (a *App) askPassphrase(ctx context.Context) ([]byte, error) {
	return getPassword("Keystore passphrase", a.out)
}

// approve is the local wallet's confirmation prompt.
func (a *App) approve(ctx context.Context, prompt string) (bool, error) {
	return getConfirmation(a.reader, "Wallet: "+prompt, a.out)
}

func (a *App) chooseWallet(ctx context.Context, candidates []wallet.Candidate) (int, error) {
	printlnFn("Choose a wallet:")
	for i, c := range candidates {
		printlnFn(fmt.Sprintf("  %d) %s", i+1, c.Display))
	}

	answer, err := getSimpleText(a.reader, "Wallet number", a.out)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(candidates) {
		return 0, errNoChoice
	}
	return n - 1, nil
}
