/*
 * main.go, part of mopml.
 *
 * Copyright 2025 Raul Mera <rmera{at}usachDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * mopml is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

//mopml runs an external semiempirical program and serves it machine-learning
//corrections over two named pipes created in the working directory. It
//checks its preconditions, creates the pipes, starts the correction loop in
//the background, launches the external program, waits for it, and removes
//the pipes, also on interruption.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rmera/mopml"
	"github.com/rmera/mopml/calc"
	"github.com/rmera/mopml/disp"
	"github.com/rmera/mopml/model"
	"github.com/rmera/mopml/pipe"
	"github.com/rmera/mopml/trace"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	initConfig()
	initLogging()
	if len(os.Args) != 2 {
		die("Usage: mopml input-file\nThe argument is the external program's own input file; its keyword line must ask for PM6-ML and contain the PIPE keyword.")
	}
	infile := os.Args[1]
	if err := mopml.ValidateInput(infile); err != nil {
		die("%v", err)
	}
	exe, err := exec.LookPath(viper.GetString("mopac"))
	if err != nil {
		die("Can't find the external program %q: %v", viper.GetString("mopac"), err)
	}
	m, err := model.Load(modelPath())
	if err != nil {
		die("Can't load the model checkpoint: %v", err)
	}
	//All preconditions hold. Only now do we create anything.
	pair, err := pipe.NewPair(".")
	if err != nil {
		die("%v", err)
	}
	var once sync.Once
	cleanup := func() { once.Do(pair.Remove) }
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Info().Str("signal", s.String()).Msg("interrupted, removing the pipes")
		cleanup()
		os.Exit(0) //an interruption is not a failure
	}()
	var tr *trace.Trace
	if viper.GetString("trace") != "" {
		tr = trace.New()
	}
	loop := calc.New(pipe.NewEngine(pair), &calc.Options{
		Disp:  disp.New(),
		Model: m,
		Trace: tr,
		Log:   log.Logger,
	})
	//The loop goroutine is daemonic on purpose: every bit of its state is
	//re-derived per request, so dying abruptly with the process loses
	//nothing. It only ever returns on a protocol or numeric error, and
	//those kill the whole run.
	go func() {
		err := loop.Run()
		cleanup()
		if perr, ok := err.(mopml.ProtocolError); ok && perr.Critical() {
			log.Fatal().Err(err).Msg("the external program broke the pipe protocol; the two processes can't resynchronize")
		}
		log.Fatal().Err(err).Msg("correction loop failed")
	}()
	cmd := exec.Command(exe, infile)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	log.Info().Str("executable", exe).Str("input", infile).Msg("starting the external program")
	if err := cmd.Run(); err != nil {
		//Its exit status is the external program's own business; we
		//still clean up and leave quietly.
		log.Warn().Err(err).Msg("the external program did not exit cleanly")
	}
	if tr != nil && tr.Len() > 0 {
		if err := tr.Save(viper.GetString("trace")); err != nil {
			log.Warn().Err(err).Msg("couldn't write the energy trace plot")
		}
	}
	cleanup()
}

func initConfig() {
	viper.SetDefault("mopac", "mopac")
	viper.SetDefault("model", "")
	viper.SetDefault("trace", "")
	viper.SetDefault("verbose", false)
	viper.SetEnvPrefix("mopml")
	viper.AutomaticEnv()
	viper.SetConfigName("mopml")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() //running without a config file is the normal case
}

func initLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if viper.GetBool("verbose") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

//modelPath returns the configured checkpoint path, or the default: a file
//called mopml.model next to the installed binary.
func modelPath() string {
	if p := viper.GetString("model"); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return "mopml.model"
	}
	return filepath.Join(filepath.Dir(exe), "mopml.model")
}

//die prints the error banner and exits with status 1. It is only used for
//precondition failures, so nothing needs cleaning up when it runs.
func die(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "mopml: fatal: "+format+"\n", args...)
	os.Exit(1)
}
