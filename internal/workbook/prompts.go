package workbook

import "fmt"

// vocabPrompt asks the backend for up to n vocabulary records from the
// given text segment, as a JSON array of {"word","quote"} objects.
func vocabPrompt(segment string, n int) string {
	return fmt.Sprintf(`You are an expert English workbook creator. Your task is to extract challenging **vocabulary words** from the given text while strictly adhering to JSON formatting.

### **Instructions**
1. **Extract exactly %d unique and challenging vocabulary words** that appear **exactly as written** in the CHUNKED TEXT.
2. **Only select** words that are:
   - **Nouns, verbs, adjectives, adverbs, phrasal verbs, or idioms.**
   - **Not too easy** (e.g., avoid common words like "door," "big," "walk").
   - **Full words only** (no partial words or prefixes).
3. For each vocabulary word, return:
   - "word": The **exact** word as it appears in the CHUNKED TEXT.
   - "quote": A paragraph including:
     - **The sentence before** the word appears.
     - **The sentence containing the word**, with the word formatted in **bold**.
     - **The sentence after** the word, if available.
4. **Strict Formatting Rules**
   - Use **curly quotes** (“ ”) and **curly apostrophes** (’).
   - **Do not duplicate words** (each word must be unique).
   - **Ensure the correct word is highlighted in bold** (not a different word or full sentence).
   - **Do not alter** the original text except to bold the word.
5. **Output must be JSON only.**
   - **Do not include any explanations, disclaimers, or extra formatting.**
   - If fewer than %d valid words are found, return only the ones available.
   - If no suitable words are found, return an empty JSON array ([]).

### **CHUNKED TEXT**
%s
`, n, n, segment)
}

// questionsPrompt asks for a JSON envelope holding up to mc
// multiple-choice and tf true/false questions about the segment.
func questionsPrompt(segment string, mc, tf int) string {
	return fmt.Sprintf(`You are an English workbook creator. Return ONLY valid JSON.

Instructions:
1. Look at the CHUNKED TEXT below.
2. Generate:
   - %d multiple-choice questions (with 4 options each, labeled A-D).
   - %d true/false questions.
3. All questions must be in literary present tense and based on the text.
4. For multiple-choice questions:
   - Include the correct answer (key: "correct").
   - Ensure the options are plausible but only one is correct.
5. For true/false questions:
   - Include the correct answer (key: "correct").
6. Output must be valid JSON. No extra text or disclaimers.

Example valid JSON:
{
  "mc_questions": [
    {
      "question": "What does the protagonist do when faced with danger?",
      "options": {
        "A": "Run away",
        "B": "Stand and fight",
        "C": "Call for help",
        "D": "Freeze in fear"
      },
      "correct": "B"
    }
  ],
  "tf_questions": [
    {
      "question": "The protagonist is always brave.",
      "correct": "False"
    }
  ]
}

CHUNKED TEXT:
%s
`, mc, tf, segment)
}

// synonymsPrompt asks for exactly synonymCount comma-separated
// synonyms for a single word.
func synonymsPrompt(word string) string {
	return fmt.Sprintf(`Provide exactly **four** synonyms for the word '%s'.
- Each synonym must be **one word** or a **short phrase** (no explanations).
- If no synonyms are found, return: **_____, _____, _____, _____**
- Output format:
  **synonym1, synonym2, synonym3, synonym4**
`, word)
}
