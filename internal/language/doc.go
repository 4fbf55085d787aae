// Package language maps subtitle file name tokens to normalized language
// tags.
//
// Subtitle files downloaded alongside a video commonly carry a language hint
// in the name, such as "ipx001.chs.srt" or "ssis-9.eng.ass". The mapping
// here turns those tokens into the tags used when subtitles are renamed next
// to the committed video.
package language
